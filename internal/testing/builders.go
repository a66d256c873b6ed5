package testing

import (
	"maps"

	"github.com/anhhoangdev/ldpctl/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining. Defaults match
// what config.Load produces for a file declaring only a platform name, so
// built configs pass validation and build real plans.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with sensible defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			Platform: config.PlatformConfig{
				Name:        "test-platform",
				Environment: config.EnvDev,
			},
			Vault: config.VaultConfig{
				Address:        config.DefaultVaultAddress,
				Mount:          config.DefaultVaultMount,
				AuthPath:       config.DefaultVaultAuthPath,
				KubernetesHost: config.DefaultKubernetesHost,
			},
			Warehouse: config.WarehouseConfig{
				Endpoint: config.DefaultWarehouseEndpoint,
				Region:   config.DefaultWarehouseRegion,
				Buckets:  []string{"warehouse"},
			},
			GitOps: config.GitOpsConfig{
				Namespace: config.DefaultGitOpsNamespace,
				Revision:  config.DefaultGitOpsRevision,
			},
		},
	}
}

// WithName sets the platform name.
func (b *ConfigBuilder) WithName(name string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Platform.Name = name
	return newBuilder
}

// WithEnvironment sets the sizing environment.
func (b *ConfigBuilder) WithEnvironment(env config.Environment) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Platform.Environment = env
	return newBuilder
}

// WithVaultAddress sets the declared in-cluster Vault address.
func (b *ConfigBuilder) WithVaultAddress(address string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Vault.Address = address
	return newBuilder
}

// WithWarehouse sets the object store endpoint and bucket list.
func (b *ConfigBuilder) WithWarehouse(endpoint string, buckets ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Warehouse.Endpoint = endpoint
	newBuilder.cfg.Warehouse.Buckets = buckets
	return newBuilder
}

// WithGitOps registers a git repository for declarative content.
func (b *ConfigBuilder) WithGitOps(repoURL, revision string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.GitOps.RepoURL = repoURL
	newBuilder.cfg.GitOps.Revision = revision
	return newBuilder
}

// WithConsumer adds a secret consumer. Service account, path, destination,
// access, and refresh interval take their per-name defaults.
func (b *ConfigBuilder) WithConsumer(name, namespace string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Consumers = append(newBuilder.cfg.Consumers, config.ConsumerConfig{
		Name:      name,
		Namespace: namespace,
	})
	return newBuilder
}

// WithChart overrides chart coordinates for one platform service.
func (b *ConfigBuilder) WithChart(service string, chart config.ChartConfig) *ConfigBuilder {
	newBuilder := b.clone()
	if newBuilder.cfg.Charts == nil {
		newBuilder.cfg.Charts = make(map[string]config.ChartConfig)
	}
	newBuilder.cfg.Charts[service] = chart
	return newBuilder
}

// WithPhase appends a user-declared phase. Any declared phase replaces the
// built-in platform plan.
func (b *ConfigBuilder) WithPhase(phase config.PhaseConfig) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Phases = append(newBuilder.cfg.Phases, clonePhaseConfig(phase))
	return newBuilder
}

// Build returns the constructed config, independent of the builder.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	return &cfg
}

// clone creates a deep copy of the builder for immutability.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	newCfg := b.cfg
	if len(b.cfg.Warehouse.Buckets) > 0 {
		newCfg.Warehouse.Buckets = cloneStringSlice(b.cfg.Warehouse.Buckets)
	}
	if len(b.cfg.Consumers) > 0 {
		newCfg.Consumers = make([]config.ConsumerConfig, len(b.cfg.Consumers))
		copy(newCfg.Consumers, b.cfg.Consumers)
	}
	if b.cfg.Charts != nil {
		newCfg.Charts = make(map[string]config.ChartConfig, len(b.cfg.Charts))
		maps.Copy(newCfg.Charts, b.cfg.Charts)
	}
	if len(b.cfg.Phases) > 0 {
		newCfg.Phases = make([]config.PhaseConfig, len(b.cfg.Phases))
		for i, phase := range b.cfg.Phases {
			newCfg.Phases[i] = clonePhaseConfig(phase)
		}
	}
	return &ConfigBuilder{cfg: newCfg}
}

// clonePhaseConfig creates a deep copy of a PhaseConfig.
func clonePhaseConfig(phase config.PhaseConfig) config.PhaseConfig {
	cloned := phase
	cloned.DependsOn = cloneStringSlice(phase.DependsOn)
	cloned.Manifests = cloneStringSlice(phase.Manifests)
	if phase.Retry != nil {
		retry := *phase.Retry
		cloned.Retry = &retry
	}
	if len(phase.Charts) > 0 {
		cloned.Charts = make([]config.PhaseChartConfig, len(phase.Charts))
		for i, chart := range phase.Charts {
			cloned.Charts[i] = chart
			if chart.Values != nil {
				cloned.Charts[i].Values = make(map[string]any, len(chart.Values))
				maps.Copy(cloned.Charts[i].Values, chart.Values)
			}
		}
	}
	if len(phase.Checks) > 0 {
		cloned.Checks = make([]config.CheckConfig, len(phase.Checks))
		copy(cloned.Checks, phase.Checks)
	}
	return cloned
}

// cloneStringSlice creates a copy of a string slice.
func cloneStringSlice(s []string) []string {
	if s == nil {
		return nil
	}
	cloned := make([]string, len(s))
	copy(cloned, s)
	return cloned
}

// MinimalConfig returns a minimal valid config for simple tests. Consumers
// are left empty, selecting the built-in consumer set.
func MinimalConfig() *config.Config {
	return NewConfigBuilder().Build()
}

// FullConfig returns a complete config with all components for integration
// tests: a registered git repository and the three built-in consumers
// declared explicitly, enabling every phase of the platform plan.
func FullConfig() *config.Config {
	return NewConfigBuilder().
		WithGitOps("https://github.com/example/platform-gitops.git", "main").
		WithConsumer("hive-metastore", "metastore").
		WithConsumer("kyuubi", "kyuubi").
		WithConsumer("airflow", "airflow").
		Build()
}
