package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func namespaceObj(name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "v1",
			"kind":       "Namespace",
			"metadata":   map[string]interface{}{"name": name},
		},
	}
}

func configMapObj(namespace, name, value string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "v1",
			"kind":       "ConfigMap",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
			},
			"data": map[string]interface{}{"value": value},
		},
	}
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	namespaced := New(configMapObj("warehouse", "hive-site", "a")).Key()
	assert.Equal(t, "core/v1/ConfigMap/warehouse/hive-site", namespaced.String())

	clusterScoped := New(namespaceObj("warehouse")).Key()
	assert.Equal(t, "core/v1/Namespace/-/warehouse", clusterScoped.String())
}

func TestKey_StableAcrossCopies(t *testing.T) {
	t.Parallel()

	a := New(configMapObj("warehouse", "hive-site", "a"))
	b := New(configMapObj("warehouse", "hive-site", "b"))

	assert.Equal(t, a.Key(), b.Key())
}

func TestStore_AddPreservesOrder(t *testing.T) {
	t.Parallel()

	s := NewStore()
	require.NoError(t, s.Add(New(namespaceObj("warehouse"))))
	require.NoError(t, s.Add(New(configMapObj("warehouse", "hive-site", "a"))))
	require.NoError(t, s.Add(New(configMapObj("warehouse", "core-site", "b"))))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "warehouse", list[0].Name())
	assert.Equal(t, "hive-site", list[1].Name())
	assert.Equal(t, "core-site", list[2].Name())
}

func TestStore_ReaddReplacesInPlace(t *testing.T) {
	t.Parallel()

	s := NewStore()
	require.NoError(t, s.Add(New(configMapObj("warehouse", "hive-site", "old"))))
	require.NoError(t, s.Add(New(configMapObj("warehouse", "core-site", "x"))))
	require.NoError(t, s.Add(New(configMapObj("warehouse", "hive-site", "new"))))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "hive-site", list[0].Name())

	value, _, _ := unstructured.NestedString(list[0].Object.Object, "data", "value")
	assert.Equal(t, "new", value)
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	s := NewStore()
	d := New(configMapObj("warehouse", "hive-site", "a"))
	require.NoError(t, s.Add(d))

	got, ok := s.Get(d.Key())
	require.True(t, ok)
	assert.Equal(t, "hive-site", got.Name())

	_, ok = s.Get(Key{Kind: "ConfigMap", Name: "missing"})
	assert.False(t, ok)
}

func TestStore_AddRejectsInvalid(t *testing.T) {
	t.Parallel()

	s := NewStore()

	noKind := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "v1",
			"metadata":   map[string]interface{}{"name": "x"},
		},
	}
	err := s.Add(New(noKind))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no kind")

	noName := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "v1",
			"kind":       "ConfigMap",
		},
	}
	err = s.Add(New(noName))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no name")

	err = s.Add(Descriptor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no payload")
}

func TestDescriptor_Labeled(t *testing.T) {
	t.Parallel()

	original := New(configMapObj("warehouse", "hive-site", "a"))
	labeled := original.Labeled(map[string]string{
		"data-platform.io/part-of": "ldp",
		"data-platform.io/phase":   "metastore-db",
	})

	assert.Equal(t, "ldp", labeled.Object.GetLabels()["data-platform.io/part-of"])
	assert.Equal(t, "metastore-db", labeled.Object.GetLabels()["data-platform.io/phase"])

	// The original payload must stay untouched.
	assert.Empty(t, original.Object.GetLabels())
}

func TestDescriptor_LabeledMergesExisting(t *testing.T) {
	t.Parallel()

	obj := configMapObj("warehouse", "hive-site", "a")
	obj.SetLabels(map[string]string{"app.kubernetes.io/name": "hive"})

	labeled := New(obj).Labeled(map[string]string{"data-platform.io/part-of": "ldp"})

	assert.Equal(t, "hive", labeled.Object.GetLabels()["app.kubernetes.io/name"])
	assert.Equal(t, "ldp", labeled.Object.GetLabels()["data-platform.io/part-of"])
}
