package commands

import (
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/ldpctl/cmd/ldpctl/handlers"
)

// Status returns the command for showing live per-phase platform health.
//
// Optional flags:
//
//	--config, -c: Path to platform configuration YAML file (default: auto-detect ldpctl.yaml)
//	--json: Output in JSON format
//	--watch, -w: Continuously repaint status every 5 seconds
func Status() *cobra.Command {
	var (
		configPath string
		jsonOutput bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show live platform health per phase",
		Long: `Show the live health of every platform phase.

Status is derived from the cluster, not from local state: each phase reports
how many of its declared resources exist and whether its readiness checks
pass right now.

Examples:
  # One-shot status
  ldpctl status

  # Machine-readable status
  ldpctl status --json

  # Repaint every 5 seconds until interrupted
  ldpctl status --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), configPath, jsonOutput, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ldpctl.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Continuously repaint status updates")

	return cmd
}
