package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = wizard.FileExists

	// confirmOverwrite asks before clobbering an existing config.
	confirmOverwrite = wizard.ConfirmOverwrite

	// runWizard runs the interactive configuration wizard.
	runWizard = wizard.RunWizard

	// writeConfig writes the wizard's config to a file.
	writeConfig = wizard.WriteConfig
)

// Init runs the interactive wizard and writes a starter configuration.
// With advanced set, the wizard asks the extra questions (kube access,
// warehouse region, gitops namespace) and the file is written in full
// form instead of the minimal starter.
func Init(ctx context.Context, outputPath string, force, advanced bool) error {
	if outputPath == "" {
		outputPath = config.DefaultConfigFilename
	}

	if fileExists(outputPath) && !force {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !ok {
			fmt.Println("Init aborted.")
			return nil
		}
	}

	result, err := runWizard(ctx, advanced)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := wizard.BuildConfig(result)
	if err := writeConfig(cfg, outputPath, advanced); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

// printInitSuccess prints the summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Platform Summary")
	fmt.Println("----------------")
	fmt.Printf("  Name:        %s\n", cfg.Platform.Name)
	fmt.Printf("  Environment: %s\n", cfg.Environment())
	fmt.Printf("  Vault:       %s\n", cfg.Vault.Address)
	fmt.Printf("  Warehouse:   %s\n", cfg.Warehouse.Endpoint)
	fmt.Printf("  Buckets:     %s\n", strings.Join(cfg.Warehouse.Buckets, ", "))
	if cfg.GitOps.RepoURL != "" {
		fmt.Printf("  GitOps:      %s @ %s\n", cfg.GitOps.RepoURL, cfg.GitOps.Revision)
	}
	if len(cfg.Consumers) > 0 {
		names := make([]string, 0, len(cfg.Consumers))
		for _, c := range cfg.Consumers {
			names = append(names, c.Name)
		}
		fmt.Printf("  Consumers:   %s\n", strings.Join(names, ", "))
	}
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Export the platform credentials:")
	fmt.Println("     export VAULT_TOKEN=<secrets engine admin token>")
	fmt.Println("     export WAREHOUSE_ACCESS_KEY=<object store access key>")
	fmt.Println("     export WAREHOUSE_SECRET_KEY=<object store secret key>")
	fmt.Println()
	fmt.Printf("  2. Review %s if needed\n", outputPath)
	fmt.Println()
	fmt.Println("  3. Check the environment:")
	fmt.Println("     ldpctl doctor")
	fmt.Println()
	fmt.Println("  4. Deploy the platform:")
	fmt.Println("     ldpctl deploy")
	fmt.Println()
}
