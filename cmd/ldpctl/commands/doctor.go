package commands

import (
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/ldpctl/cmd/ldpctl/handlers"
)

// Doctor returns the command for diagnosing the deploy environment.
//
// Optional flags:
//
//	--config, -c: Path to platform configuration YAML file (default: auto-detect ldpctl.yaml)
func Doctor() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials and connectivity before deploying",
		Long: `Check everything a deploy needs without mutating the cluster.

Verifies the required credentials are exported (VAULT_TOKEN,
WAREHOUSE_ACCESS_KEY, WAREHOUSE_SECRET_KEY) and that the Kubernetes API is
reachable. Secrets engine and object store connectivity are probed as
warnings; both run inside the cluster, so they are unreachable until the
platform is deployed or a port-forward is up.

Examples:
  # Check the environment
  ldpctl doctor

  # Check against a specific config
  ldpctl doctor -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ldpctl.yaml)")

	return cmd
}
