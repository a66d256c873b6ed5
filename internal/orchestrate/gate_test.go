package orchestrate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

func TestGateWait_NoChecksSkipped(t *testing.T) {
	t.Parallel()
	g := NewGate(&kube.MockClient{}, time.Millisecond, nil)

	result, err := g.Wait(context.Background(), "empty", nil)

	require.NoError(t, err)
	assert.Equal(t, GateSkipped, result)
}

func TestGateWait_AllSatisfied(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := NewGate(&kube.MockClient{}, time.Millisecond, rec.notify)

	checks := []ReadinessCheck{
		{Target: TargetDeployment, Namespace: "minio", Ref: "minio", Required: true},
		{Target: TargetEndpoints, Namespace: "minio", Ref: "minio", Required: true},
	}

	result, err := g.Wait(context.Background(), "minio", checks)

	require.NoError(t, err)
	assert.Equal(t, GateReady, result)
	assert.Equal(t, 2, rec.count(EventCheckSatisfied))
}

func TestGateWait_PollsUntilSatisfied(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	var mu sync.Mutex
	polls := 0
	mock.EndpointsReadyFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 4 {
			return false, "no ready endpoint addresses", nil
		}
		return true, "2 endpoint addresses", nil
	}

	g := NewGate(mock, 2*time.Millisecond, nil)
	checks := []ReadinessCheck{{Target: TargetEndpoints, Namespace: "vault", Ref: "vault", Required: true}}

	result, err := g.Wait(context.Background(), "vault", checks)

	require.NoError(t, err)
	assert.Equal(t, GateReady, result)
	mu.Lock()
	assert.GreaterOrEqual(t, polls, 4)
	mu.Unlock()
}

func TestGateWait_RequiredTimeout(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.SecretMaterializedFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return false, "secret not found", nil
	}

	rec := &recorder{}
	g := NewGate(mock, 5*time.Millisecond, rec.notify)
	checks := []ReadinessCheck{{
		Name:      "airflow-conn",
		Target:    TargetSecret,
		Namespace: "airflow",
		Ref:       "airflow-connections",
		Timeout:   20 * time.Millisecond,
		Required:  true,
	}}

	result, err := g.Wait(context.Background(), "airflow", checks)

	assert.Equal(t, GateTimedOut, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "airflow-conn not satisfied after 20ms")
	assert.Contains(t, err.Error(), "secret not found")
	assert.True(t, rec.has(EventCheckTimedOut))
}

func TestGateWait_OptionalTimeoutDegrades(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.PodsReadyFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		return false, "0/1 pods ready", nil
	}

	rec := &recorder{}
	g := NewGate(mock, 5*time.Millisecond, rec.notify)
	checks := []ReadinessCheck{
		{Target: TargetDeployment, Namespace: "kyuubi", Ref: "kyuubi", Required: true},
		{Target: TargetPods, Namespace: "kyuubi", Ref: "app=spark-ui", Timeout: 20 * time.Millisecond},
	}

	result, err := g.Wait(context.Background(), "kyuubi", checks)

	require.NoError(t, err, "optional timeouts must not fail the gate")
	assert.Equal(t, GateReady, result)
	assert.Equal(t, 1, rec.count(EventCheckTimedOut))
}

func TestGateWait_CancelledWithinOneTick(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.CRDEstablishedFunc = func(_ context.Context, _ string) (bool, string, error) {
		return false, "crd not found", nil
	}

	// An hour-long interval proves cancellation does not wait out the tick.
	g := NewGate(mock, time.Hour, nil)
	checks := []ReadinessCheck{{Target: TargetCRD, Ref: "applications.argoproj.io", Required: true}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := g.Wait(ctx, "argocd", checks)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGateWait_UnknownTargetIsFatal(t *testing.T) {
	t.Parallel()
	g := NewGate(&kube.MockClient{}, time.Millisecond, nil)
	checks := []ReadinessCheck{{Target: CheckTarget("database"), Ref: "x", Required: true}}

	result, err := g.Wait(context.Background(), "broken", checks)

	assert.Equal(t, GateTimedOut, result)
	require.Error(t, err)
	assert.True(t, retry.IsFatal(err))
	assert.Contains(t, err.Error(), `unknown check target "database"`)
}

func TestGateWait_TransientCheckErrorKeepsPolling(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	var mu sync.Mutex
	calls := 0
	mock.DeploymentAvailableFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return false, "", errors.New("apiserver hiccup")
		}
		return true, "available", nil
	}

	g := NewGate(mock, 2*time.Millisecond, nil)
	checks := []ReadinessCheck{{Target: TargetDeployment, Namespace: "argocd", Ref: "argocd-server", Required: true}}

	result, err := g.Wait(context.Background(), "argocd", checks)

	require.NoError(t, err)
	assert.Equal(t, GateReady, result)
}

func TestGateWait_ChecksEvaluateIndependently(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	var mu sync.Mutex
	slowPolls := 0
	mock.DeploymentAvailableFunc = func(_ context.Context, _, name string) (bool, string, error) {
		mu.Lock()
		defer mu.Unlock()
		if name == "fast" {
			return true, "available", nil
		}
		slowPolls++
		return slowPolls >= 3, "warming up", nil
	}

	rec := &recorder{}
	g := NewGate(mock, 2*time.Millisecond, rec.notify)
	checks := []ReadinessCheck{
		{Target: TargetDeployment, Namespace: "ns", Ref: "fast", Required: true},
		{Target: TargetDeployment, Namespace: "ns", Ref: "slow", Required: true},
	}

	result, err := g.Wait(context.Background(), "mixed", checks)

	require.NoError(t, err)
	assert.Equal(t, GateReady, result)
	// The fast check is satisfied on the first pass and never re-polled,
	// so every later poll belongs to the slow one.
	assert.Equal(t, 2, rec.count(EventCheckSatisfied))
}

func TestReadinessCheck_DisplayName(t *testing.T) {
	t.Parallel()
	named := ReadinessCheck{Name: "vault-up", Target: TargetPods, Namespace: "vault", Ref: "app=vault"}
	assert.Equal(t, "vault-up", named.DisplayName())

	namespaced := ReadinessCheck{Target: TargetDeployment, Namespace: "minio", Ref: "minio"}
	assert.Equal(t, "deployment minio/minio", namespaced.DisplayName())

	clusterScoped := ReadinessCheck{Target: TargetCRD, Ref: "applications.argoproj.io"}
	assert.Equal(t, "crd applications.argoproj.io", clusterScoped.DisplayName())
}
