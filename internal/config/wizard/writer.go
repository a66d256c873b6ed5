package wizard

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anhhoangdev/ldpctl/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteConfig writes the config to a YAML file with a descriptive header.
// If fullOutput is false, only essential non-default values are written.
func WriteConfig(cfg *config.Config, outputPath string, fullOutput bool) error {
	var yamlBytes []byte
	var err error

	if fullOutput {
		yamlBytes, err = yaml.Marshal(cfg)
	} else {
		// Create minimal config with only essential fields
		minCfg := buildMinimalConfig(cfg)
		yamlBytes, err = yaml.Marshal(minCfg)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath, fullOutput))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// MinimalConfig represents the minimal configuration for YAML output.
// Only contains fields that are essential or explicitly set by the user.
type MinimalConfig struct {
	Platform  config.PlatformConfig   `yaml:"platform"`
	Kube      *MinimalKubeConfig      `yaml:"kube,omitempty"`
	Vault     *MinimalVaultConfig     `yaml:"vault,omitempty"`
	Warehouse *MinimalWarehouseConfig `yaml:"warehouse,omitempty"`
	GitOps    *MinimalGitOpsConfig    `yaml:"gitops,omitempty"`
	Consumers []MinimalConsumer       `yaml:"consumers,omitempty"`
}

// MinimalKubeConfig contains cluster connection settings if customized.
type MinimalKubeConfig struct {
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
	Context    string `yaml:"context,omitempty"`
}

// MinimalVaultConfig contains the secrets engine address if customized.
type MinimalVaultConfig struct {
	Address string `yaml:"address"`
}

// MinimalWarehouseConfig contains object store settings if customized.
type MinimalWarehouseConfig struct {
	Endpoint string   `yaml:"endpoint,omitempty"`
	Region   string   `yaml:"region,omitempty"`
	Buckets  []string `yaml:"buckets,omitempty"`
}

// MinimalGitOpsConfig contains gitops settings if a repository is tracked.
type MinimalGitOpsConfig struct {
	Namespace string `yaml:"namespace,omitempty"`
	RepoURL   string `yaml:"repoURL,omitempty"`
	Revision  string `yaml:"revision,omitempty"`
}

// MinimalConsumer contains the essential consumer declaration. The loader
// fills in service account, path, destination, and access defaults.
type MinimalConsumer struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
}

// buildMinimalConfig creates a minimal config from the full config.
func buildMinimalConfig(cfg *config.Config) *MinimalConfig {
	minCfg := &MinimalConfig{
		Platform: cfg.Platform,
	}

	// Cluster connection - only if customized
	if cfg.Kube.Kubeconfig != "" || cfg.Kube.Context != "" {
		minCfg.Kube = &MinimalKubeConfig{
			Kubeconfig: cfg.Kube.Kubeconfig,
			Context:    cfg.Kube.Context,
		}
	}

	// Vault - only if the address differs from the in-cluster default
	if cfg.Vault.Address != "" && cfg.Vault.Address != config.DefaultVaultAddress {
		minCfg.Vault = &MinimalVaultConfig{Address: cfg.Vault.Address}
	}

	// Warehouse - only non-default fields
	warehouse := &MinimalWarehouseConfig{}
	hasWarehouse := false
	if cfg.Warehouse.Endpoint != "" && cfg.Warehouse.Endpoint != config.DefaultWarehouseEndpoint {
		warehouse.Endpoint = cfg.Warehouse.Endpoint
		hasWarehouse = true
	}
	if cfg.Warehouse.Region != "" && cfg.Warehouse.Region != config.DefaultWarehouseRegion {
		warehouse.Region = cfg.Warehouse.Region
		hasWarehouse = true
	}
	if len(cfg.Warehouse.Buckets) > 0 && !slices.Equal(cfg.Warehouse.Buckets, config.DefaultBuckets()) {
		warehouse.Buckets = cfg.Warehouse.Buckets
		hasWarehouse = true
	}
	if hasWarehouse {
		minCfg.Warehouse = warehouse
	}

	// GitOps - only if a repository is tracked or the namespace is customized
	if cfg.GitOps.RepoURL != "" || (cfg.GitOps.Namespace != "" && cfg.GitOps.Namespace != config.DefaultGitOpsNamespace) {
		gitops := &MinimalGitOpsConfig{
			RepoURL: cfg.GitOps.RepoURL,
		}
		if cfg.GitOps.Namespace != "" && cfg.GitOps.Namespace != config.DefaultGitOpsNamespace {
			gitops.Namespace = cfg.GitOps.Namespace
		}
		if cfg.GitOps.Revision != "" && cfg.GitOps.Revision != config.DefaultGitOpsRevision {
			gitops.Revision = cfg.GitOps.Revision
		}
		minCfg.GitOps = gitops
	}

	// Consumers - name and namespace only, the loader defaults the rest
	for _, c := range cfg.Consumers {
		minCfg.Consumers = append(minCfg.Consumers, MinimalConsumer{
			Name:      c.Name,
			Namespace: c.Namespace,
		})
	}

	return minCfg
}

// generateHeader creates the YAML file header comment.
func generateHeader(outputPath string, fullOutput bool) string {
	mode := "minimal"
	note := "\n# Note: This is a minimal config. Use --full flag for all options."
	if fullOutput {
		mode = "full"
		note = ""
	}
	return fmt.Sprintf(`# ldpctl platform configuration
# Generated by: ldpctl init
# Generated at: %s
# Output mode: %s
# Docs: https://github.com/anhhoangdev/ldpctl%s
#
# Required environment variable:
#   VAULT_TOKEN - Vault token allowed to manage the platform mount
#
# Usage:
#   export VAULT_TOKEN=<your-token>
#   ldpctl deploy -c %s
`, time.Now().Format(time.RFC3339), mode, note, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
