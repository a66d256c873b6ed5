package commands

import (
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/ldpctl/cmd/ldpctl/handlers"
)

// Cleanup returns the command for tearing the platform down.
//
// Optional flags:
//
//	--config, -c: Path to platform configuration YAML file (default: auto-detect ldpctl.yaml)
//	--yes, -y: Skip the confirmation prompt
func Cleanup() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete every platform resource",
		Long: `Delete every resource the platform plan declares, in reverse
dependency order. Warehouse buckets are emptied and removed first, while
the object store is still serving; bucket failures are reported as
warnings and never stop the teardown.

Resources that are already gone are tolerated, so cleanup can be re-run
after a partial failure. Persistent volumes provisioned by the cluster's
storage class may retain data after their claims are deleted.

Examples:
  # Tear down with a confirmation prompt
  ldpctl cleanup

  # Tear down without prompting (automation)
  ldpctl cleanup --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Cleanup(cmd.Context(), configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ldpctl.yaml)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
