// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the ldpctl CLI.
//
// The root command serves as the entry point and parent for all subcommands.
// Errors and usage are silenced here; main prints the error once and maps it
// to the process exit code.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ldpctl",
		Short:         "Deploy and operate a lakehouse data platform on Kubernetes",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Status())
	cmd.AddCommand(Cleanup())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
