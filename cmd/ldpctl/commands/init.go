package commands

import (
	"github.com/spf13/cobra"

	"github.com/anhhoangdev/ldpctl/cmd/ldpctl/handlers"
)

// Init returns the command for creating a platform configuration file.
//
// Optional flags:
//
//	--config, -c: Output path for the configuration file (default: ldpctl.yaml)
//	--force, -f: Overwrite an existing file without prompting
//	--advanced: Ask additional questions (kube access, region, gitops namespace)
func Init() *cobra.Command {
	var (
		outputPath string
		force      bool
		advanced   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a platform configuration interactively",
		Long: `Create a platform configuration file through an interactive wizard.

The wizard asks for the platform name, environment, secrets engine address,
object store endpoint and buckets, an optional GitOps repository, and the
consumers that receive secret material. Everything else falls back to
sensible defaults at load time.

Examples:
  # Create ldpctl.yaml in the current directory
  ldpctl init

  # Write to a different path, overwriting silently
  ldpctl init -c platform.yaml --force

  # Ask the advanced questions too
  ldpctl init --advanced`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, force, advanced)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "config", "c", "", "Output path for the configuration file (default: ldpctl.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file without prompting")
	cmd.Flags().BoolVar(&advanced, "advanced", false, "Ask additional configuration questions")

	return cmd
}
