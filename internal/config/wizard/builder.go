package wizard

import "github.com/anhhoangdev/ldpctl/internal/config"

// BuildConfig creates a Config struct from the wizard result.
func BuildConfig(result *WizardResult) *config.Config {
	cfg := &config.Config{
		Platform: config.PlatformConfig{
			Name:        result.PlatformName,
			Environment: config.Environment(result.Environment),
		},
		Vault: config.VaultConfig{
			Address: result.VaultAddress,
		},
		Warehouse: config.WarehouseConfig{
			Endpoint: result.WarehouseEndpoint,
			Buckets:  result.Buckets,
		},
	}

	// Only set gitops if a repository was provided (optional section)
	if result.GitOpsRepoURL != "" {
		cfg.GitOps = config.GitOpsConfig{
			RepoURL:  result.GitOpsRepoURL,
			Revision: result.GitOpsRevision,
		}
	}

	cfg.Consumers = buildConsumers(result.EnabledConsumers)

	if result.AdvancedOptions != nil {
		applyAdvancedOptions(cfg, result.AdvancedOptions)
	}

	return cfg
}

// buildConsumers creates minimal consumer declarations from enabled
// consumer keys. Service account, path, destination, and access fall back
// to the loader's per-field defaults.
func buildConsumers(enabled []string) []config.ConsumerConfig {
	consumers := make([]config.ConsumerConfig, 0, len(enabled))
	for _, key := range enabled {
		c, ok := FindConsumer(key)
		if !ok {
			continue
		}
		consumers = append(consumers, config.ConsumerConfig{
			Name:      c.Key,
			Namespace: c.Namespace,
		})
	}
	return consumers
}

// applyAdvancedOptions applies advanced options to the config.
func applyAdvancedOptions(cfg *config.Config, opts *AdvancedOptions) {
	if opts.Kubeconfig != "" {
		cfg.Kube.Kubeconfig = opts.Kubeconfig
	}
	if opts.KubeContext != "" {
		cfg.Kube.Context = opts.KubeContext
	}
	if opts.WarehouseRegion != "" {
		cfg.Warehouse.Region = opts.WarehouseRegion
	}
	if opts.GitOpsNamespace != "" {
		cfg.GitOps.Namespace = opts.GitOpsNamespace
	}
}
