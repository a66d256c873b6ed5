package orchestrate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
)

func TestInspectPlan_ReportsMissingResources(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.ExistsFunc = func(_ context.Context, obj *unstructured.Unstructured) (bool, error) {
		return obj.GetName() != "db-b", nil
	}

	plan := Plan{
		&Phase{Name: "db", Resources: storeOf(t, testConfigMap("db-a"), testConfigMap("db-b"))},
	}

	health, err := InspectPlan(context.Background(), mock, plan)
	require.NoError(t, err)
	require.Len(t, health, 1)

	h := health[0]
	assert.Equal(t, 2, h.ResourcesTotal)
	assert.Equal(t, 1, h.ResourcesPresent)
	assert.Equal(t, []string{"core/v1/ConfigMap/data-platform/db-b"}, h.MissingResources)
	assert.False(t, h.Healthy())
	assert.True(t, h.Deployed())
}

func TestInspectPlan_EvaluatesEachCheckOnce(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	var mu sync.Mutex
	calls := 0
	mock.DeploymentAvailableFunc = func(_ context.Context, _, _ string) (bool, string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return false, "0/1 replicas available", nil
	}

	plan := Plan{
		&Phase{Name: "minio", Checks: []ReadinessCheck{
			{Target: TargetDeployment, Namespace: "minio", Ref: "minio", Required: true},
		}},
	}

	health, err := InspectPlan(context.Background(), mock, plan)
	require.NoError(t, err)

	require.Len(t, health[0].Checks, 1)
	assert.False(t, health[0].Checks[0].Satisfied)
	assert.Equal(t, "0/1 replicas available", health[0].Checks[0].Detail)
	mu.Lock()
	assert.Equal(t, 1, calls, "status is a snapshot, not a convergence wait")
	mu.Unlock()
}

func TestInspectPlan_HealthyPhase(t *testing.T) {
	t.Parallel()
	plan := Plan{
		&Phase{
			Name:      "vault",
			Resources: storeOf(t, testConfigMap("vault-config")),
			Checks: []ReadinessCheck{
				{Target: TargetStatefulSet, Namespace: "vault", Ref: "vault", Required: true},
			},
		},
	}

	health, err := InspectPlan(context.Background(), &kube.MockClient{}, plan)
	require.NoError(t, err)

	h := health[0]
	assert.True(t, h.Healthy())
	assert.True(t, h.Deployed())
	assert.Empty(t, h.MissingResources)
	assert.True(t, h.Checks[0].Satisfied)
}

func TestInspectPlan_CheckErrorBecomesDetail(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.CRDEstablishedFunc = func(_ context.Context, _ string) (bool, string, error) {
		return false, "", errors.New("apiserver unavailable")
	}

	plan := Plan{
		&Phase{Name: "argocd", Checks: []ReadinessCheck{
			{Target: TargetCRD, Ref: "applications.argoproj.io", Required: true},
		}},
	}

	health, err := InspectPlan(context.Background(), mock, plan)
	require.NoError(t, err)

	assert.False(t, health[0].Checks[0].Satisfied)
	assert.Equal(t, "apiserver unavailable", health[0].Checks[0].Detail)
}

func TestInspectPlan_NeverDeployed(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.ExistsFunc = func(_ context.Context, _ *unstructured.Unstructured) (bool, error) {
		return false, nil
	}

	plan := Plan{
		&Phase{Name: "kyuubi", Resources: storeOf(t, testConfigMap("kyuubi-defaults"))},
	}

	health, err := InspectPlan(context.Background(), mock, plan)
	require.NoError(t, err)

	assert.False(t, health[0].Deployed())
	assert.False(t, health[0].Healthy())
}

func TestInspectPlan_ExistsErrorCountsAsMissing(t *testing.T) {
	t.Parallel()
	mock := &kube.MockClient{}
	mock.ExistsFunc = func(_ context.Context, _ *unstructured.Unstructured) (bool, error) {
		return false, errors.New("forbidden")
	}

	plan := Plan{
		&Phase{Name: "ns", Resources: storeOf(t, testConfigMap("ns-a"))},
	}

	health, err := InspectPlan(context.Background(), mock, plan)
	require.NoError(t, err)

	assert.Equal(t, 0, health[0].ResourcesPresent)
	assert.Len(t, health[0].MissingResources, 1)
}

func TestInspectPlan_EmptyPhaseIsHealthyButUndeployed(t *testing.T) {
	t.Parallel()
	plan := Plan{&Phase{Name: "noop"}}

	health, err := InspectPlan(context.Background(), &kube.MockClient{}, plan)
	require.NoError(t, err)

	assert.True(t, health[0].Healthy())
	assert.False(t, health[0].Deployed())
}

func TestInspectPlan_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := Plan{&Phase{Name: "a"}}
	_, err := InspectPlan(ctx, &kube.MockClient{}, plan)

	require.ErrorIs(t, err, context.Canceled)
}

func TestInspectPlan_OrderMatchesPlan(t *testing.T) {
	t.Parallel()
	plan := Plan{
		&Phase{Name: "namespaces"},
		&Phase{Name: "vault", Optional: false},
		&Phase{Name: "observability", Optional: true},
	}

	health, err := InspectPlan(context.Background(), &kube.MockClient{}, plan)
	require.NoError(t, err)

	var names []string
	for _, h := range health {
		names = append(names, h.Phase)
	}
	assert.Equal(t, []string{"namespaces", "vault", "observability"}, names)
	assert.True(t, health[2].Optional)
}
