package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// declaredDeployment is a representative chart-rendered payload: labels, a
// replica count, one container with resource requests.
func declaredDeployment() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]interface{}{
			"name":      "hive-metastore",
			"namespace": "metastore",
			"labels": map[string]interface{}{
				"data-platform.io/phase": "hive-metastore",
			},
		},
		"spec": map[string]interface{}{
			"replicas": int64(1),
			"template": map[string]interface{}{
				"spec": map[string]interface{}{
					"containers": []interface{}{
						map[string]interface{}{
							"name":  "metastore",
							"image": "apache/hive:4.0.0",
							"resources": map[string]interface{}{
								"requests": map[string]interface{}{
									"cpu":    "1000m",
									"memory": "512Mi",
								},
							},
						},
					},
				},
			},
		},
	}}
}

// storedDeployment is what the API server hands back for declaredDeployment:
// bookkeeping metadata, defaulted fields, a status block, and normalized
// resource quantities.
func storedDeployment() *unstructured.Unstructured {
	live := declaredDeployment().DeepCopy()
	live.SetResourceVersion("8842")
	live.SetUID("6e1f73c2")
	_ = unstructured.SetNestedField(live.Object, "2026-08-25T10:00:00Z", "metadata", "creationTimestamp")
	_ = unstructured.SetNestedField(live.Object, int64(600), "spec", "progressDeadlineSeconds")

	containers, _, _ := unstructured.NestedSlice(live.Object, "spec", "template", "spec", "containers")
	container := containers[0].(map[string]interface{})
	container["imagePullPolicy"] = "IfNotPresent"
	requests := container["resources"].(map[string]interface{})["requests"].(map[string]interface{})
	requests["cpu"] = "1" // the server normalizes "1000m"
	containers[0] = container
	_ = unstructured.SetNestedSlice(live.Object, containers, "spec", "template", "spec", "containers")

	_ = unstructured.SetNestedField(live.Object, int64(1), "status", "readyReplicas")
	return live
}

func TestDrifted_ToleratesServerOwnedFields(t *testing.T) {
	t.Parallel()
	assert.False(t, Drifted(declaredDeployment(), storedDeployment()),
		"defaults, bookkeeping and quantity normalization are not drift")
}

func TestDrifted_DetectsChangedFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(live *unstructured.Unstructured)
	}{
		{
			name: "replica count changed",
			mutate: func(live *unstructured.Unstructured) {
				_ = unstructured.SetNestedField(live.Object, int64(3), "spec", "replicas")
			},
		},
		{
			name: "declared label removed",
			mutate: func(live *unstructured.Unstructured) {
				unstructured.RemoveNestedField(live.Object, "metadata", "labels", "data-platform.io/phase")
			},
		},
		{
			name: "container image changed",
			mutate: func(live *unstructured.Unstructured) {
				containers, _, _ := unstructured.NestedSlice(live.Object, "spec", "template", "spec", "containers")
				containers[0].(map[string]interface{})["image"] = "apache/hive:3.1.3"
				_ = unstructured.SetNestedSlice(live.Object, containers, "spec", "template", "spec", "containers")
			},
		},
		{
			name: "container removed",
			mutate: func(live *unstructured.Unstructured) {
				_ = unstructured.SetNestedSlice(live.Object, []interface{}{}, "spec", "template", "spec", "containers")
			},
		},
		{
			name: "cpu request really changed",
			mutate: func(live *unstructured.Unstructured) {
				containers, _, _ := unstructured.NestedSlice(live.Object, "spec", "template", "spec", "containers")
				container := containers[0].(map[string]interface{})
				requests := container["resources"].(map[string]interface{})["requests"].(map[string]interface{})
				requests["cpu"] = "250m"
				_ = unstructured.SetNestedSlice(live.Object, containers, "spec", "template", "spec", "containers")
			},
		},
		{
			name: "whole spec gone",
			mutate: func(live *unstructured.Unstructured) {
				unstructured.RemoveNestedField(live.Object, "spec")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			live := storedDeployment()
			tc.mutate(live)
			assert.True(t, Drifted(declaredDeployment(), live))
		})
	}
}

func TestDrifted_NumericWidths(t *testing.T) {
	t.Parallel()
	declared := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata":   map[string]interface{}{"name": "thrift", "namespace": "metastore"},
		"spec": map[string]interface{}{
			// Payloads round-tripped through plain JSON carry float64;
			// the API decoder hands back int64.
			"ports": []interface{}{
				map[string]interface{}{"name": "thrift", "port": float64(9083)},
			},
		},
	}}
	live := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata":   map[string]interface{}{"name": "thrift", "namespace": "metastore"},
		"spec": map[string]interface{}{
			"clusterIP": "10.96.12.4",
			"ports": []interface{}{
				map[string]interface{}{"name": "thrift", "port": int64(9083), "protocol": "TCP"},
			},
		},
	}}

	assert.False(t, Drifted(declared, live))

	_ = unstructured.SetNestedField(live.Object, "ClusterIP", "spec", "type")
	assert.False(t, Drifted(declared, live), "fields the declaration never names stay out of the comparison")
}

func TestDrifted_NullCreationTimestamp(t *testing.T) {
	t.Parallel()
	declared := declaredDeployment()
	declared.Object["metadata"].(map[string]interface{})["creationTimestamp"] = nil
	declared.Object["status"] = map[string]interface{}{}

	assert.False(t, Drifted(declared, storedDeployment()),
		"chart-rendered null timestamps and empty status blocks never converge and must be ignored")
}

func TestDrifted_SecretStringData(t *testing.T) {
	t.Parallel()
	declared := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   map[string]interface{}{"name": "gitops-admin", "namespace": "argocd"},
		"type":       "Opaque",
		"stringData": map[string]interface{}{
			"password": "s3cr3t",
		},
	}}
	stored := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   map[string]interface{}{"name": "gitops-admin", "namespace": "argocd"},
		"type":       "Opaque",
		"data": map[string]interface{}{
			"password": "czNjcjN0", // base64("s3cr3t")
		},
	}}

	assert.False(t, Drifted(declared, stored), "stringData compares against its stored base64 form")

	tampered := stored.DeepCopy()
	tampered.Object["data"].(map[string]interface{})["password"] = "Y2hhbmdlZA==" // base64("changed")
	assert.True(t, Drifted(declared, tampered))

	emptied := stored.DeepCopy()
	unstructured.RemoveNestedField(emptied.Object, "data", "password")
	assert.True(t, Drifted(declared, emptied))
}

func TestDrifted_ListLengthChanges(t *testing.T) {
	t.Parallel()
	declared := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name":      "allowlist",
			"namespace": "data-platform",
			"finalizers": []interface{}{
				"data-platform.io/cleanup",
			},
		},
	}}
	live := declared.DeepCopy()
	finalizers, _, _ := unstructured.NestedSlice(live.Object, "metadata", "finalizers")
	finalizers = append(finalizers, "someone.else/hold")
	_ = unstructured.SetNestedSlice(live.Object, finalizers, "metadata", "finalizers")

	assert.True(t, Drifted(declared, live), "a grown list is drift; the reapply restores the declared shape")
}
