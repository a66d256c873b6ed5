package orchestrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
)

func teardownPlan(t *testing.T) Plan {
	t.Helper()
	return Plan{
		&Phase{Name: "ns", Resources: storeOf(t, testConfigMap("ns-a"))},
		&Phase{Name: "db", DependsOn: []string{"ns"}, Resources: storeOf(t, testConfigMap("db-a"), testConfigMap("db-b"))},
	}
}

func TestTeardown_DeletesInReverseOrder(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	td, err := NewTeardown(mock, teardownPlan(t), WithTeardownGrace(0))
	require.NoError(t, err)

	require.NoError(t, td.Run(context.Background()))

	assert.Equal(t, []string{
		"ConfigMap/data-platform/db-b",
		"ConfigMap/data-platform/db-a",
		"ConfigMap/data-platform/ns-a",
	}, mock.Deleted(), "dependents go first, and within a phase the last applied goes first")
}

func TestTeardown_ContinuesThroughErrors(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.DeleteFunc = func(_ context.Context, obj *unstructured.Unstructured) error {
		if obj.GetName() == "db-a" {
			return errors.New("webhook rejected the delete")
		}
		return nil
	}

	rec := &recorder{}
	td, err := NewTeardown(mock, teardownPlan(t), WithTeardownGrace(0), WithTeardownNotify(rec.notify))
	require.NoError(t, err)

	err = td.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "phase db")
	assert.Contains(t, err.Error(), "db-a")
	assert.Len(t, mock.Deleted(), 3, "one stuck resource must not stop the sweep")
	assert.Equal(t, 2, rec.count(EventResourceDeleted))
	assert.Equal(t, 1, rec.count(EventResourceFailed))
}

func TestTeardown_RunTwiceIsIdempotent(t *testing.T) {
	t.Parallel()
	// The platform client tolerates deleting absent objects, so a second
	// sweep sees only clean no-op deletes.
	mock := &kube.MockClient{}
	td, err := NewTeardown(mock, teardownPlan(t), WithTeardownGrace(0))
	require.NoError(t, err)

	require.NoError(t, td.Run(context.Background()))
	require.NoError(t, td.Run(context.Background()))

	assert.Len(t, mock.Deleted(), 6)
}

func TestTeardown_GraceWaitsForDeletion(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	td, err := NewTeardown(mock, teardownPlan(t), WithTeardownGrace(time.Second))
	require.NoError(t, err)

	require.NoError(t, td.Run(context.Background()))

	assert.NotEmpty(t, mock.Waited())
}

func TestTeardown_ZeroGraceSkipsWaiting(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	td, err := NewTeardown(mock, teardownPlan(t), WithTeardownGrace(0))
	require.NoError(t, err)

	require.NoError(t, td.Run(context.Background()))

	assert.Empty(t, mock.Waited())
}

func TestTeardown_LingeringObjectIsNotAnError(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.WaitAbsentFunc = func(_ context.Context, _ *unstructured.Unstructured, _ time.Duration) error {
		return errors.New("timed out waiting for deletion")
	}

	td, err := NewTeardown(mock, teardownPlan(t), WithTeardownGrace(50*time.Millisecond))
	require.NoError(t, err)

	assert.NoError(t, td.Run(context.Background()),
		"finalizers can outlive any grace period; the sweep moves on")
}

func TestTeardown_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &kube.MockClient{}
	td, err := NewTeardown(mock, teardownPlan(t), WithTeardownGrace(0))
	require.NoError(t, err)

	err = td.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.Deleted())
}

func TestNewTeardown_RejectsInvalidPlan(t *testing.T) {
	t.Parallel()
	plan := Plan{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	}

	_, err := NewTeardown(&kube.MockClient{}, plan)

	require.Error(t, err)
}
