package handlers

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anhhoangdev/ldpctl/internal/catalog"
	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	ldptest "github.com/anhhoangdev/ldpctl/internal/testing"
)

// saveAndRestoreFactories snapshots every factory variable and restores
// them when the test finishes, so tests can inject fakes freely.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoadConfigFile := loadConfigFile
	origFindConfigFile := findConfigFile
	origLoadTimeouts := loadTimeouts
	origNewKubeClient := newKubeClient
	origNewVaultClient := newVaultClient
	origBuildPlan := buildPlan
	origNewPipeline := newPipeline
	origNewConvergeLoop := newConvergeLoop
	origRunDeployTUI := runDeployTUI
	origRunPreflight := runPreflight
	origIsInteractiveTTY := isInteractiveTTY
	origInspectPlan := inspectPlan
	origNewTeardown := newTeardown
	origNewBucketPurger := newBucketPurger
	origStdin := stdin
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origRunWizard := runWizard
	origWriteConfig := writeConfig
	origKubeProbe := kubeProbe
	origVaultProbe := vaultProbe
	origWarehouseProbe := warehouseProbe

	t.Cleanup(func() {
		loadConfigFile = origLoadConfigFile
		findConfigFile = origFindConfigFile
		loadTimeouts = origLoadTimeouts
		newKubeClient = origNewKubeClient
		newVaultClient = origNewVaultClient
		buildPlan = origBuildPlan
		newPipeline = origNewPipeline
		newConvergeLoop = origNewConvergeLoop
		runDeployTUI = origRunDeployTUI
		runPreflight = origRunPreflight
		isInteractiveTTY = origIsInteractiveTTY
		inspectPlan = origInspectPlan
		newTeardown = origNewTeardown
		newBucketPurger = origNewBucketPurger
		stdin = origStdin
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		runWizard = origRunWizard
		writeConfig = origWriteConfig
		kubeProbe = origKubeProbe
		vaultProbe = origVaultProbe
		warehouseProbe = origWarehouseProbe
	})
}

// setCredentials exports the required platform credentials for the test.
func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("VAULT_TOKEN", "root-token")
	t.Setenv("WAREHOUSE_ACCESS_KEY", "warehouse-admin")
	t.Setenv("WAREHOUSE_SECRET_KEY", "warehouse-secret")
}

// stubConfig wires the config loader to a fixed, fully-populated config.
func stubConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := ldptest.FullConfig()
	loadConfigFile = func(string) (*config.Config, error) { return cfg, nil }
	findConfigFile = func() (string, error) { return "ldpctl.yaml", nil }
	return cfg
}

// stubCluster wires the kube client factory to a healthy fixture.
func stubCluster(t *testing.T) *kube.MockClient {
	t.Helper()
	mock := ldptest.NewPlatformFixture().HealthyPlatform()
	newKubeClient = func(*config.Config) (kube.Client, error) { return mock, nil }
	return mock
}

// stubPlan wires plan assembly to a small fixed plan.
func stubPlan(t *testing.T) orchestrate.Plan {
	t.Helper()
	plan := orchestrate.Plan{
		{Name: "namespaces"},
		{Name: "object-store", DependsOn: []string{"namespaces"}},
	}
	buildPlan = func(context.Context, *config.Config, *config.Timeouts, catalog.Deps) (orchestrate.Plan, error) {
		return plan, nil
	}
	return plan
}

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = orig })

	fn()

	require.NoError(t, w.Close())
	os.Stdout = orig
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func successSummary() *orchestrate.Summary {
	return &orchestrate.Summary{
		RunID:   "test-run",
		Counts:  map[orchestrate.Status]int{orchestrate.StatusSucceeded: 2},
		Success: true,
	}
}

func failureSummary() *orchestrate.Summary {
	return &orchestrate.Summary{
		RunID: "test-run",
		Counts: map[orchestrate.Status]int{
			orchestrate.StatusSucceeded: 1,
			orchestrate.StatusFailed:    1,
		},
		Success: false,
	}
}

// fakeDeployer counts Deploy calls and returns a canned outcome.
type fakeDeployer struct {
	summary *orchestrate.Summary
	err     error
	calls   int
}

func (f *fakeDeployer) Deploy(context.Context) (*orchestrate.Summary, error) {
	f.calls++
	return f.summary, f.err
}

// fakeConverger counts Run calls for the post-rollout loop.
type fakeConverger struct {
	err   error
	calls int
}

func (f *fakeConverger) Run(context.Context) error {
	f.calls++
	return f.err
}

// fakeTeardown counts Run calls for cleanup. onRun, when set, observes the
// moment the sweep starts.
type fakeTeardown struct {
	err   error
	calls int
	onRun func()
}

func (f *fakeTeardown) Run(context.Context) error {
	f.calls++
	if f.onRun != nil {
		f.onRun()
	}
	return f.err
}
