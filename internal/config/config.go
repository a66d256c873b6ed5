package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
	"github.com/anhhoangdev/ldpctl/internal/util/naming"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// Config is the root of ldpctl.yaml.
type Config struct {
	// Platform identifies this installation and its sizing preset.
	Platform PlatformConfig `yaml:"platform"`

	// Kube selects the cluster connection. Empty fields fall back to
	// $KUBECONFIG and the current context.
	Kube KubeConfig `yaml:"kube,omitempty"`

	// Vault configures the secrets engine connection and auth topology.
	Vault VaultConfig `yaml:"vault,omitempty"`

	// Warehouse configures the object store and the buckets the platform
	// provisions.
	Warehouse WarehouseConfig `yaml:"warehouse,omitempty"`

	// GitOps configures the declarative-content registration.
	GitOps GitOpsConfig `yaml:"gitops,omitempty"`

	// Consumers declare which services receive secret material. Empty
	// selects the built-in consumer set.
	Consumers []ConsumerConfig `yaml:"consumers,omitempty"`

	// Charts override repository, chart name, or version per platform
	// service in the built-in plan.
	Charts map[string]ChartConfig `yaml:"charts,omitempty"`

	// Phases, when non-empty, replace the built-in platform plan.
	Phases []PhaseConfig `yaml:"phases,omitempty"`
}

// PlatformConfig identifies the installation.
type PlatformConfig struct {
	// Name labels every resource the orchestrator applies. Must be
	// DNS-safe: lowercase alphanumeric and hyphens, starting with a letter.
	Name string `yaml:"name"`

	// Environment selects the sizing preset (dev, staging, prod).
	Environment Environment `yaml:"environment,omitempty"`
}

// KubeConfig selects the cluster connection.
type KubeConfig struct {
	// Kubeconfig is the path to a kubeconfig file. Empty uses $KUBECONFIG,
	// then ~/.kube/config.
	Kubeconfig string `yaml:"kubeconfig,omitempty"`

	// Context overrides the kubeconfig's current context.
	Context string `yaml:"context,omitempty"`
}

// VaultConfig configures the secrets engine.
type VaultConfig struct {
	// Address is the Vault API endpoint as reachable from inside the
	// cluster. In-cluster payloads (the sync operator's connection) use it
	// verbatim.
	Address string `yaml:"address,omitempty"`

	// AddressOverride carries the VAULT_ADDR environment override. The
	// CLI-side client prefers it, so one config serves port-forwarded and
	// in-cluster runs without pointing pods at a tunnel.
	AddressOverride string `yaml:"-"`

	// Mount is the KV v2 mount holding platform secrets.
	Mount string `yaml:"mount,omitempty"`

	// AuthPath is where the kubernetes auth method is enabled.
	AuthPath string `yaml:"authPath,omitempty"`

	// KubernetesHost is the API server address Vault uses to verify
	// service account tokens.
	KubernetesHost string `yaml:"kubernetesHost,omitempty"`
}

// ClientAddress returns the address the CLI-side client should dial:
// the VAULT_ADDR override when set, otherwise the declared address.
func (v VaultConfig) ClientAddress() string {
	if v.AddressOverride != "" {
		return v.AddressOverride
	}
	return v.Address
}

// WarehouseConfig configures the object store.
type WarehouseConfig struct {
	// Endpoint is the S3 API endpoint as reachable from inside the
	// cluster. In-cluster payloads (metastore s3a config, log remotes) use
	// it verbatim.
	Endpoint string `yaml:"endpoint,omitempty"`

	// EndpointOverride carries the WAREHOUSE_ENDPOINT environment
	// override for the CLI-side S3 client.
	EndpointOverride string `yaml:"-"`

	// Region is the S3 region name the client signs requests with.
	Region string `yaml:"region,omitempty"`

	// Buckets are created after the object store is ready.
	Buckets []string `yaml:"buckets,omitempty"`
}

// ClientEndpoint returns the endpoint the CLI-side S3 client should dial:
// the WAREHOUSE_ENDPOINT override when set, otherwise the declared endpoint.
func (w WarehouseConfig) ClientEndpoint() string {
	if w.EndpointOverride != "" {
		return w.EndpointOverride
	}
	return w.Endpoint
}

// GitOpsConfig configures declarative-content registration.
type GitOpsConfig struct {
	// Namespace is where the GitOps controller runs.
	Namespace string `yaml:"namespace,omitempty"`

	// RepoURL is the git repository carrying the platform's declarative
	// content (DAGs, dbt models, app manifests).
	RepoURL string `yaml:"repoURL,omitempty"`

	// Revision is the branch, tag, or commit to track.
	Revision string `yaml:"revision,omitempty"`
}

// ConsumerConfig declares one secret consumer. Only the name and
// namespace are required; the loader derives the rest from the name.
// Durations are strings like "1m" because that is what YAML carries.
type ConsumerConfig struct {
	// Name is the platform service receiving material, e.g. "airflow".
	Name string `yaml:"name"`

	// Namespace is where the consumer and its destination Secret live.
	Namespace string `yaml:"namespace"`

	// ServiceAccount is the identity bound to the Vault role. Defaults to
	// the consumer name.
	ServiceAccount string `yaml:"serviceAccount,omitempty"`

	// Path is the KV path under the mount. Defaults to the consumer name.
	Path string `yaml:"path,omitempty"`

	// Destination is the cluster Secret the material syncs into. Defaults
	// to <name>-secrets.
	Destination string `yaml:"destination,omitempty"`

	// RefreshInterval is how often the sync operator re-reads Vault.
	// Defaults to one minute.
	RefreshInterval string `yaml:"refreshInterval,omitempty"`

	// Access selects the policy capability level, read or write. Defaults
	// to read.
	Access secrets.Access `yaml:"access,omitempty"`
}

// Binding converts the declaration to a runtime binding with per-field
// defaults applied: the service account and KV path default to the
// consumer name, the destination secret to the conventional name, access
// to read, and the refresh interval to one minute.
func (c ConsumerConfig) Binding() secrets.Binding {
	b := secrets.Binding{
		Consumer:        c.Name,
		Namespace:       c.Namespace,
		ServiceAccount:  c.ServiceAccount,
		Path:            c.Path,
		Destination:     c.Destination,
		RefreshInterval: durationOrZero(c.RefreshInterval),
		Access:          c.Access,
	}
	if b.ServiceAccount == "" {
		b.ServiceAccount = c.Name
	}
	if b.Path == "" {
		b.Path = c.Name
	}
	if b.Destination == "" {
		b.Destination = naming.DestinationSecret(c.Name)
	}
	if b.Access == "" {
		b.Access = secrets.AccessRead
	}
	if b.RefreshInterval <= 0 {
		b.RefreshInterval = time.Minute
	}
	return b
}

// ChartConfig overrides chart coordinates for one platform service.
type ChartConfig struct {
	Repository string `yaml:"repository,omitempty"`
	Chart      string `yaml:"chart,omitempty"`
	Version    string `yaml:"version,omitempty"`
}

// Override converts the chart settings to the helm package's override
// shape.
func (c ChartConfig) Override() helm.Override {
	return helm.Override{
		Repository: c.Repository,
		Chart:      c.Chart,
		Version:    c.Version,
	}
}

// PhaseConfig declares one user-defined phase. A non-empty phases list
// replaces the built-in plan entirely.
type PhaseConfig struct {
	// Name identifies the phase. Must be unique and DNS-safe.
	Name string `yaml:"name"`

	// DependsOn names phases that must succeed first.
	DependsOn []string `yaml:"dependsOn,omitempty"`

	// Optional phases never block dependents.
	Optional bool `yaml:"optional,omitempty"`

	// Timeout bounds the whole phase, as a duration string like "10m".
	// Empty means the run-level phase timeout applies.
	Timeout string `yaml:"timeout,omitempty"`

	// Retry bounds per-resource apply attempts. Nil uses the defaults.
	Retry *RetryConfig `yaml:"retry,omitempty"`

	// Manifests are YAML files or directories contributing resources.
	Manifests []string `yaml:"manifests,omitempty"`

	// Charts are rendered into resources at plan build time.
	Charts []PhaseChartConfig `yaml:"charts,omitempty"`

	// Checks gate phase completion.
	Checks []CheckConfig `yaml:"checks,omitempty"`
}

// TimeoutDuration returns the parsed phase timeout, or zero when unset.
func (p PhaseConfig) TimeoutDuration() time.Duration {
	return durationOrZero(p.Timeout)
}

// RetryConfig bounds per-resource apply attempts for one phase. Unset
// fields fall back to the default policy.
type RetryConfig struct {
	MaxAttempts  int     `yaml:"maxAttempts,omitempty"`
	InitialDelay string  `yaml:"initialDelay,omitempty"`
	MaxDelay     string  `yaml:"maxDelay,omitempty"`
	Multiplier   float64 `yaml:"multiplier,omitempty"`
}

// Policy converts the declaration to a runtime retry policy, filling
// unset fields from the defaults. A nil receiver yields the defaults.
func (r *RetryConfig) Policy() retry.Policy {
	var p retry.Policy
	if r != nil {
		p.MaxAttempts = r.MaxAttempts
		p.InitialDelay = durationOrZero(r.InitialDelay)
		p.MaxDelay = durationOrZero(r.MaxDelay)
		p.Multiplier = r.Multiplier
	}
	return p.OrDefault()
}

// CheckConfig declares one readiness check gating a phase.
type CheckConfig struct {
	// Name identifies the check in logs and status output.
	Name string `yaml:"name,omitempty"`

	// Target selects which inspection to run: deployment, statefulset,
	// pods, endpoints, crd, secret, or application. Case-insensitive.
	Target string `yaml:"target"`

	// Namespace scopes the inspection. Ignored for cluster-scoped targets.
	Namespace string `yaml:"namespace,omitempty"`

	// Selector is the object name, or a label selector for the pods target.
	Selector string `yaml:"selector"`

	// Timeout bounds the wait, as a duration string like "5m". Empty means
	// the run-level check timeout applies.
	Timeout string `yaml:"timeout,omitempty"`

	// Required decides whether a timeout is fatal or a warning. Omitted
	// means required.
	Required *bool `yaml:"required,omitempty"`
}

// Check converts the declaration to a runtime readiness check.
func (c CheckConfig) Check() orchestrate.ReadinessCheck {
	required := true
	if c.Required != nil {
		required = *c.Required
	}
	return orchestrate.ReadinessCheck{
		Name:      c.Name,
		Target:    orchestrate.CheckTarget(strings.ToLower(c.Target)),
		Namespace: c.Namespace,
		Ref:       c.Selector,
		Timeout:   durationOrZero(c.Timeout),
		Required:  required,
	}
}

// durationOrZero parses a duration string, returning zero when empty or
// invalid. Validation rejects invalid values before conversion runs.
func durationOrZero(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// PhaseChartConfig declares one chart contributing resources to a phase.
type PhaseChartConfig struct {
	Repository string `yaml:"repository"`
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`

	// Release names the helm release. Defaults to the chart name.
	Release string `yaml:"release,omitempty"`

	// Namespace is the render-time release namespace.
	Namespace string `yaml:"namespace"`

	// Values override the chart defaults.
	Values map[string]any `yaml:"values,omitempty"`
}

// Spec converts the chart settings to a downloadable chart spec.
func (c PhaseChartConfig) Spec() helm.ChartSpec {
	return helm.ChartSpec{
		Repository: c.Repository,
		Name:       c.Name,
		Version:    c.Version,
	}
}

// ReleaseName returns the release name, defaulting to the chart name.
func (c PhaseChartConfig) ReleaseName() string {
	if c.Release != "" {
		return c.Release
	}
	return c.Name
}

// Environment selects a sizing preset.
type Environment string

const (
	// EnvDev sizes for a laptop-class cluster: single replicas, small
	// persistence.
	EnvDev Environment = "dev"
	// EnvStaging sizes for a shared integration cluster.
	EnvStaging Environment = "staging"
	// EnvProd sizes for production: HA replicas, full persistence.
	EnvProd Environment = "prod"
)

// ValidEnvironments returns all valid environments.
func ValidEnvironments() []Environment {
	return []Environment{EnvDev, EnvStaging, EnvProd}
}

// IsValid returns true if the environment is one of the known presets.
func (e Environment) IsValid() bool {
	switch e {
	case EnvDev, EnvStaging, EnvProd:
		return true
	default:
		return false
	}
}

// String returns a human-readable description of the environment.
func (e Environment) String() string {
	switch e {
	case EnvDev:
		return "dev (single replicas, minimal persistence)"
	case EnvStaging:
		return "staging (shared integration sizing)"
	case EnvProd:
		return "prod (HA replicas, full persistence)"
	default:
		return string(e)
	}
}

// Bindings returns the consumer declarations converted to runtime
// bindings, defaults applied.
func (c *Config) Bindings() []secrets.Binding {
	bindings := make([]secrets.Binding, len(c.Consumers))
	for i, cc := range c.Consumers {
		bindings[i] = cc.Binding()
	}
	return bindings
}

// ChartOverride returns the configured override for a platform service,
// or the zero override when the service is not customized.
func (c *Config) ChartOverride(service string) helm.Override {
	if c.Charts == nil {
		return helm.Override{}
	}
	return c.Charts[service].Override()
}

// HasCustomPlan returns true when user-declared phases replace the
// built-in platform plan.
func (c *Config) HasCustomPlan() bool {
	return len(c.Phases) > 0
}

// Environment returns the configured environment, defaulting to dev.
func (c *Config) Environment() Environment {
	if c.Platform.Environment == "" {
		return EnvDev
	}
	return c.Platform.Environment
}

// Describe returns a one-line summary for status headers.
func (c *Config) Describe() string {
	return fmt.Sprintf("%s (%s)", c.Platform.Name, c.Environment())
}
