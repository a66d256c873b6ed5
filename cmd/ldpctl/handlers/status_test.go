package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhhoangdev/ldpctl/internal/catalog"
	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
)

func TestStatus_JSONShape(t *testing.T) {
	saveAndRestoreFactories(t)
	stubConfig(t)
	stubCluster(t)
	stubPlan(t)

	inspectPlan = func(context.Context, kube.Client, orchestrate.Plan) ([]orchestrate.PhaseHealth, error) {
		return []orchestrate.PhaseHealth{
			{Phase: "namespaces", ResourcesTotal: 6, ResourcesPresent: 6},
			{
				Phase:            "object-store",
				ResourcesTotal:   4,
				ResourcesPresent: 3,
				MissingResources: []string{"v1/Deployment/minio/minio"},
				Checks: []orchestrate.CheckHealth{
					{Check: orchestrate.ReadinessCheck{Name: "minio-available"}, Satisfied: false, Detail: "0/2 replicas available"},
				},
			},
		}, nil
	}

	out := captureStdout(t, func() {
		require.NoError(t, Status(context.Background(), "", true, false))
	})

	var health []orchestrate.PhaseHealth
	require.NoError(t, json.Unmarshal([]byte(out), &health))
	require.Len(t, health, 2)
	assert.Equal(t, "namespaces", health[0].Phase)
	assert.Equal(t, 6, health[0].ResourcesPresent)
	assert.Equal(t, []string{"v1/Deployment/minio/minio"}, health[1].MissingResources)
	require.Len(t, health[1].Checks, 1)
	assert.Equal(t, "minio-available", health[1].Checks[0].Check.Name)
	assert.False(t, health[1].Checks[0].Satisfied)
}

func TestStatus_RendersHumanOutput(t *testing.T) {
	saveAndRestoreFactories(t)
	stubConfig(t)
	stubCluster(t)
	stubPlan(t)

	inspectPlan = func(context.Context, kube.Client, orchestrate.Plan) ([]orchestrate.PhaseHealth, error) {
		return []orchestrate.PhaseHealth{
			{Phase: "namespaces", ResourcesTotal: 6, ResourcesPresent: 6},
		}, nil
	}

	out := captureStdout(t, func() {
		require.NoError(t, Status(context.Background(), "", false, false))
	})

	assert.Contains(t, out, "test-platform")
	assert.Contains(t, out, "namespaces")
	assert.Contains(t, out, "6/6 resources")
}

func TestStatus_InspectError(t *testing.T) {
	saveAndRestoreFactories(t)
	stubConfig(t)
	stubCluster(t)
	stubPlan(t)

	inspectPlan = func(context.Context, kube.Client, orchestrate.Plan) ([]orchestrate.PhaseHealth, error) {
		return nil, errors.New("connection refused")
	}

	err := Status(context.Background(), "", true, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to inspect platform")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestStatus_PlanErrorIsConfigError(t *testing.T) {
	saveAndRestoreFactories(t)
	stubConfig(t)
	stubCluster(t)

	buildPlan = func(context.Context, *config.Config, *config.Timeouts, catalog.Deps) (orchestrate.Plan, error) {
		return nil, errors.New("dependency cycle detected")
	}

	err := Status(context.Background(), "", false, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to assemble plan")
	assert.Equal(t, ExitInvalidConfig, ExitCode(err))
}

func TestStatus_WatchStopsOnCancel(t *testing.T) {
	saveAndRestoreFactories(t)
	stubConfig(t)
	stubCluster(t)
	stubPlan(t)

	calls := 0
	inspectPlan = func(context.Context, kube.Client, orchestrate.Plan) ([]orchestrate.PhaseHealth, error) {
		calls++
		return []orchestrate.PhaseHealth{{Phase: "namespaces"}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	captureStdout(t, func() {
		require.NoError(t, Status(ctx, "", true, true))
	})

	// The first paint always happens; the canceled context ends the loop
	// before the first tick.
	assert.Equal(t, 1, calls)
}
