// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/anhhoangdev/ldpctl/internal/catalog"
	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/platform/vault"
	"github.com/anhhoangdev/ldpctl/internal/reconcile"
	"github.com/anhhoangdev/ldpctl/internal/ui/tui"
	"github.com/anhhoangdev/ldpctl/internal/util/preflight"
)

// planDeployer runs an assembled plan to completion. Matches orchestrate.Pipeline.
type planDeployer interface {
	Deploy(ctx context.Context) (*orchestrate.Summary, error)
}

// convergeRunner repairs drift until its context ends. Matches reconcile.Reconciler.
type convergeRunner interface {
	Run(ctx context.Context) error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads and validates a config file.
	loadConfigFile = config.Load

	// findConfigFile locates ldpctl.yaml in the working directory or a parent.
	findConfigFile = config.FindConfigFile

	// loadTimeouts reads the environment-tunable timeout set.
	loadTimeouts = config.LoadTimeouts

	// newKubeClient builds the cluster client from the config's kube section.
	newKubeClient = func(cfg *config.Config) (kube.Client, error) {
		restConfig, err := kube.LoadRESTConfig(cfg.Kube.Kubeconfig, cfg.Kube.Context)
		if err != nil {
			return nil, err
		}
		return kube.New(restConfig, kube.DefaultFieldManager)
	}

	// newVaultClient builds the secrets engine client.
	newVaultClient = func(addr, token string) *vault.Client {
		return vault.NewClient(addr, token)
	}

	// buildPlan assembles the phase plan from the catalog.
	buildPlan = func(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts, deps catalog.Deps) (orchestrate.Plan, error) {
		return catalog.New(cfg, timeouts, deps).Plan(ctx)
	}

	// newPipeline builds the deploy pipeline.
	newPipeline = func(client kube.Client, plan orchestrate.Plan, opts ...orchestrate.PipelineOption) (planDeployer, error) {
		return orchestrate.NewPipeline(client, plan, opts...)
	}

	// newConvergeLoop builds the post-rollout drift repair loop.
	newConvergeLoop = func(client kube.Client, plan orchestrate.Plan, notify orchestrate.Notify) (convergeRunner, error) {
		return reconcile.New(client, plan, reconcile.WithNotify(notify))
	}

	// runDeployTUI drives the full-screen deploy dashboard.
	runDeployTUI = tui.RunDeployTUI

	// runPreflight executes environment checks.
	runPreflight = preflight.Run

	// isInteractiveTTY reports whether stdout is a terminal.
	isInteractiveTTY = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// Deploy rolls the full platform plan out to the cluster.
//
// The sequence:
//  1. Load and validate the configuration (auto-detects ldpctl.yaml).
//  2. Preflight the required environment credentials.
//  3. Build the kubernetes and secrets engine clients.
//  4. Assemble the phase plan from the catalog (or the config's custom phases).
//  5. Run the pipeline: dashboard on a TTY, plain event lines otherwise.
//  6. With converge set, keep repairing drift until interrupted.
//
// Credentials come from the environment only: VAULT_TOKEN,
// WAREHOUSE_ACCESS_KEY, WAREHOUSE_SECRET_KEY. The config file never
// carries secret material.
func Deploy(ctx context.Context, configPath string, converge, plain bool, timeoutScale float64) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	results := runPreflight(ctx, requiredEnvChecks())
	if results.HasErrors() {
		return configErr(results.Error())
	}

	client, err := newKubeClient(cfg)
	if err != nil {
		return configErr(fmt.Errorf("failed to create kubernetes client: %w", err))
	}

	deps := catalog.Deps{
		Kube:               client,
		Vault:              newVaultClient(cfg.Vault.ClientAddress(), os.Getenv("VAULT_TOKEN")),
		WarehouseAccessKey: os.Getenv("WAREHOUSE_ACCESS_KEY"),
		WarehouseSecretKey: os.Getenv("WAREHOUSE_SECRET_KEY"),
	}

	plan, err := buildPlan(ctx, cfg, loadTimeouts().Scale(timeoutScale), deps)
	if err != nil {
		return configErr(fmt.Errorf("failed to assemble plan: %w", err))
	}

	log.Printf("Deploying platform %q (%s): %d phases", cfg.Platform.Name, cfg.Environment(), len(plan))

	summary, err := runPipeline(ctx, cfg, client, plan, plain)
	if err != nil {
		return err
	}

	fmt.Println(tui.RenderSummary(summary))

	if summary.ExitCode() != 0 {
		return fmt.Errorf("deployment finished with failures: %s", summary)
	}

	if converge {
		return runConvergeLoop(ctx, client, plan)
	}
	return nil
}

// runPipeline executes the plan, choosing the presentation by terminal
// capability. The dashboard owns the screen, so plain event lines and the
// TUI are mutually exclusive.
func runPipeline(ctx context.Context, cfg *config.Config, client kube.Client, plan orchestrate.Plan, plain bool) (*orchestrate.Summary, error) {
	if !plain && isInteractiveTTY() {
		summary, err := runDeployTUI(ctx, cfg.Platform.Name, cfg.Environment().String(), plan,
			func(ctx context.Context, notify orchestrate.Notify) (*orchestrate.Summary, error) {
				pipeline, err := newPipeline(client, plan, orchestrate.WithPipelineNotify(notify))
				if err != nil {
					return nil, configErr(fmt.Errorf("invalid phase plan: %w", err))
				}
				return pipeline.Deploy(ctx)
			})
		if err != nil {
			return nil, fmt.Errorf("deployment failed: %w", err)
		}
		return summary, nil
	}

	pipeline, err := newPipeline(client, plan, orchestrate.WithPipelineNotify(orchestrate.ConsoleObserver()))
	if err != nil {
		return nil, configErr(fmt.Errorf("invalid phase plan: %w", err))
	}
	summary, err := pipeline.Deploy(ctx)
	if err != nil {
		return nil, fmt.Errorf("deployment failed: %w", err)
	}
	return summary, nil
}

// runConvergeLoop keeps reapplying drifted or deleted resources after a
// successful rollout. It returns nil when the context is interrupted.
func runConvergeLoop(ctx context.Context, client kube.Client, plan orchestrate.Plan) error {
	loop, err := newConvergeLoop(client, plan, orchestrate.ConsoleObserver())
	if err != nil {
		return fmt.Errorf("failed to start convergence loop: %w", err)
	}

	log.Printf("Rollout complete, converging every %s (interrupt to stop)", reconcile.DefaultInterval)
	return loop.Run(ctx)
}

// requiredEnvChecks lists the credentials every mutating command needs.
// They come from the environment, never the config file.
func requiredEnvChecks() []preflight.Check {
	return []preflight.Check{
		{
			Name:        "VAULT_TOKEN",
			Required:    true,
			Description: "secrets engine admin token",
			Probe:       preflight.Env("VAULT_TOKEN"),
		},
		{
			Name:        "WAREHOUSE_ACCESS_KEY",
			Required:    true,
			Description: "object store root access key",
			Probe:       preflight.Env("WAREHOUSE_ACCESS_KEY"),
		},
		{
			Name:        "WAREHOUSE_SECRET_KEY",
			Required:    true,
			Description: "object store root secret key",
			Probe:       preflight.Env("WAREHOUSE_SECRET_KEY"),
		},
	}
}

// loadConfig loads and validates the platform configuration. An empty path
// walks up from the working directory looking for ldpctl.yaml.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, configErr(fmt.Errorf("no config file found: %w\nRun 'ldpctl init' to create one", err))
		}
		configPath = found
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, configErr(fmt.Errorf("failed to load config: %w", err))
	}
	return cfg, nil
}
