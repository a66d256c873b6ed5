package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/platform/objectstore"
	"github.com/anhhoangdev/ldpctl/internal/ui/tui"
	"github.com/anhhoangdev/ldpctl/internal/util/preflight"
)

// Factory function variables for doctor - can be replaced in tests.
var (
	// kubeProbe checks the cluster API is reachable. Client construction
	// performs API discovery, so a built client is a successful probe.
	kubeProbe = func(cfg *config.Config) preflight.ProbeFunc {
		return func(_ context.Context) (string, error) {
			if _, err := newKubeClient(cfg); err != nil {
				return "", err
			}
			return "API discovery succeeded", nil
		}
	}

	// vaultProbe checks the secrets engine health endpoint.
	vaultProbe = func(cfg *config.Config) preflight.ProbeFunc {
		return func(ctx context.Context) (string, error) {
			health, err := newVaultClient(cfg.Vault.ClientAddress(), os.Getenv("VAULT_TOKEN")).Health(ctx)
			if err != nil {
				return "", err
			}
			switch {
			case !health.Initialized:
				return "reachable, not initialized", nil
			case health.Sealed:
				return "reachable, sealed", nil
			default:
				return fmt.Sprintf("healthy (version %s)", health.Version), nil
			}
		}
	}

	// warehouseProbe checks the object store answers S3 calls.
	warehouseProbe = func(cfg *config.Config) preflight.ProbeFunc {
		return func(ctx context.Context) (string, error) {
			client, err := objectstore.NewClient(ctx,
				cfg.Warehouse.ClientEndpoint(),
				cfg.Warehouse.Region,
				os.Getenv("WAREHOUSE_ACCESS_KEY"),
				os.Getenv("WAREHOUSE_SECRET_KEY"),
			)
			if err != nil {
				return "", err
			}

			bucket := cfg.Warehouse.Buckets[0]
			exists, err := client.BucketExists(ctx, bucket)
			if err != nil {
				return "", err
			}
			if !exists {
				return fmt.Sprintf("reachable, bucket %q not created yet", bucket), nil
			}
			return fmt.Sprintf("reachable, bucket %q present", bucket), nil
		}
	}
)

// Doctor checks credentials and connectivity without mutating anything,
// then renders the report. Required failures (credentials, the kubernetes
// API) exit with the invalid-configuration code; the in-cluster endpoints
// only warn, since they are unreachable until the platform is deployed or
// port-forwarded.
func Doctor(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	results := runPreflight(ctx, doctorChecks(cfg))

	fmt.Println(tui.RenderPreflight(cfg.Platform.Name, results))

	if results.HasErrors() {
		return configErr(results.Error())
	}
	return nil
}

// doctorChecks assembles the diagnostic set: the required credential trio,
// the required kubernetes API probe, and the two in-cluster endpoint
// warnings.
func doctorChecks(cfg *config.Config) []preflight.Check {
	checks := requiredEnvChecks()

	return append(checks,
		preflight.Check{
			Name:        "kubernetes",
			Required:    true,
			Description: "cluster API reachable",
			Probe:       kubeProbe(cfg),
		},
		preflight.Check{
			Name:        "vault",
			Description: fmt.Sprintf("secrets engine at %s", cfg.Vault.ClientAddress()),
			Probe:       vaultProbe(cfg),
		},
		preflight.Check{
			Name:        "warehouse",
			Description: fmt.Sprintf("object store at %s", cfg.Warehouse.ClientEndpoint()),
			Probe:       warehouseProbe(cfg),
		},
	)
}
