package wizard

import (
	"context"
	"fmt"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	// Platform Identity
	PlatformName string
	Environment  string

	// Secrets Engine
	VaultAddress string

	// Object Store
	WarehouseEndpoint string
	Buckets           []string

	// GitOps (optional - if empty, app registration is skipped)
	GitOpsRepoURL  string
	GitOpsRevision string

	// Consumers
	EnabledConsumers []string

	// Advanced options (only set in advanced mode)
	AdvancedOptions *AdvancedOptions
}

// AdvancedOptions holds advanced configuration options.
type AdvancedOptions struct {
	// Kubernetes access
	Kubeconfig  string
	KubeContext string

	// Overrides
	WarehouseRegion string
	GitOpsNamespace string
}

// RunWizard runs the interactive configuration wizard.
// If advanced is true, additional configuration options are shown.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, advanced bool) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runPlatformIdentityGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("platform identity: %w", err)
	}

	if err := runSecretsEngineGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("secrets engine: %w", err)
	}

	if err := runObjectStoreGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}

	if err := runGitOpsGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("gitops: %w", err)
	}

	if err := runConsumersGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("consumers: %w", err)
	}

	if advanced {
		advOpts := &AdvancedOptions{}

		if err := runKubeAccessGroup(ctx, advOpts); err != nil {
			return nil, fmt.Errorf("kubernetes access: %w", err)
		}

		if err := runOverridesGroup(ctx, advOpts); err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}

		result.AdvancedOptions = advOpts
	}

	return result, nil
}

// containsConsumer checks if a consumer is in the enabled list.
func containsConsumer(consumers []string, consumer string) bool {
	for _, c := range consumers {
		if c == consumer {
			return true
		}
	}
	return false
}
