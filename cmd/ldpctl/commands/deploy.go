package commands

import (
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/ldpctl/cmd/ldpctl/handlers"
)

// Deploy returns the command for rolling out the data platform.
//
// Optional flags:
//
//	--config, -c: Path to platform configuration YAML file (default: auto-detect ldpctl.yaml)
//	--converge: Keep the convergence loop running after a successful rollout
//	--plain: Print plain event lines instead of the interactive dashboard
//	--timeout-scale: Multiply every phase and check timeout by this factor
//
// Environment variables:
//
//	VAULT_TOKEN: secrets engine admin token (required)
//	WAREHOUSE_ACCESS_KEY: object store root access key (required)
//	WAREHOUSE_SECRET_KEY: object store root secret key (required)
//	VAULT_ADDR, WAREHOUSE_ENDPOINT: client-side endpoint overrides
//	KUBECONFIG: kubeconfig path when the config file names none
func Deploy() *cobra.Command {
	var (
		configPath   string
		converge     bool
		plain        bool
		timeoutScale float64
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy or update the data platform",
		Long: `Deploy or update the data platform on your Kubernetes cluster.

This command applies every platform phase in dependency order: namespaces,
secrets engine, secret bootstrap, object store, metastore database, Hive
metastore, GitOps registration, query gateway, workflow orchestrator,
ingress, and the optional observability stack. Re-running it is safe; all
applies are idempotent.

If no config file is specified, it looks for ldpctl.yaml in the current
directory and its parents. Use 'ldpctl init' to create a configuration file.

Examples:
  # Deploy using ldpctl.yaml in the current directory
  ldpctl deploy

  # Deploy using a specific config file
  ldpctl deploy -c production.yaml

  # Deploy and keep repairing drift until interrupted
  ldpctl deploy --converge

  # Slow cluster: triple every timeout
  ldpctl deploy --timeout-scale 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), configPath, converge, plain, timeoutScale)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ldpctl.yaml)")
	cmd.Flags().BoolVar(&converge, "converge", false, "Keep the convergence loop running after a successful rollout")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable the interactive dashboard and print plain event lines")
	cmd.Flags().Float64Var(&timeoutScale, "timeout-scale", 1.0, "Multiply every phase and check timeout by this factor")

	return cmd
}
