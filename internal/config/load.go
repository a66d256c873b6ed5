package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "ldpctl.yaml"

// Built-in connection defaults for an in-cluster platform.
const (
	DefaultVaultAddress      = "http://vault.vault.svc:8200"
	DefaultVaultMount        = "secret"
	DefaultVaultAuthPath     = "kubernetes"
	DefaultKubernetesHost    = "https://kubernetes.default.svc"
	DefaultWarehouseEndpoint = "http://minio.minio.svc:9000"
	DefaultWarehouseRegion   = "us-east-1"
	DefaultGitOpsNamespace   = "argocd"
	DefaultGitOpsRevision    = "main"
)

// DefaultBuckets are the object-store buckets the platform provisions
// when the config does not list any.
func DefaultBuckets() []string {
	return []string{"warehouse", "lakehouse-staging", "airflow-logs"}
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithoutValidation reads and defaults a configuration file without
// validating it. Useful for tooling that inspects partially valid configs.
func LoadWithoutValidation(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

// LoadFromBytes parses, defaults, and validates configuration bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parse unmarshals YAML and applies defaults and environment overrides.
func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return &cfg, nil
}

// applyDefaults fills unset fields with the in-cluster defaults.
func (c *Config) applyDefaults() {
	if c.Platform.Environment == "" {
		c.Platform.Environment = EnvDev
	}
	if c.Vault.Address == "" {
		c.Vault.Address = DefaultVaultAddress
	}
	if c.Vault.Mount == "" {
		c.Vault.Mount = DefaultVaultMount
	}
	if c.Vault.AuthPath == "" {
		c.Vault.AuthPath = DefaultVaultAuthPath
	}
	if c.Vault.KubernetesHost == "" {
		c.Vault.KubernetesHost = DefaultKubernetesHost
	}
	if c.Warehouse.Endpoint == "" {
		c.Warehouse.Endpoint = DefaultWarehouseEndpoint
	}
	if c.Warehouse.Region == "" {
		c.Warehouse.Region = DefaultWarehouseRegion
	}
	if len(c.Warehouse.Buckets) == 0 {
		c.Warehouse.Buckets = DefaultBuckets()
	}
	if c.GitOps.Namespace == "" {
		c.GitOps.Namespace = DefaultGitOpsNamespace
	}
	if c.GitOps.Revision == "" {
		c.GitOps.Revision = DefaultGitOpsRevision
	}
}

// applyEnvOverrides captures the connection overrides. They apply to the
// CLI-side clients only; declared addresses stay untouched so in-cluster
// payloads never point at a port-forward.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("VAULT_ADDR"); addr != "" {
		c.Vault.AddressOverride = addr
	}
	if endpoint := os.Getenv("WAREHOUSE_ENDPOINT"); endpoint != "" {
		c.Warehouse.EndpointOverride = endpoint
	}
	if kubeconfig := os.Getenv("KUBECONFIG"); kubeconfig != "" && c.Kube.Kubeconfig == "" {
		c.Kube.Kubeconfig = kubeconfig
	}
}

// DefaultConfigPath returns the default config path in the current
// working directory.
func DefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return DefaultConfigFilename
	}
	return filepath.Join(cwd, DefaultConfigFilename)
}

// FindConfigFile searches for ldpctl.yaml in the current directory, then
// walks up the directory tree.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(cwd, DefaultConfigFilename)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent

		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}

// Save writes a configuration to a file, readable only by the owner.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
