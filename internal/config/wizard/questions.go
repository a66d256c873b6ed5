package wizard

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/anhhoangdev/ldpctl/internal/config"
)

// platformNameRegex validates platform name format: 1-32 characters,
// lowercase alphanumeric with hyphens, starting with a letter.
var platformNameRegex = regexp.MustCompile(`^[a-z](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

// bucketNameRegex validates S3 bucket name format.
var bucketNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9.-]{1,61}[a-z0-9])$`)

// runPlatformIdentityGroup prompts for platform name and environment.
func runPlatformIdentityGroup(ctx context.Context, result *WizardResult) error {
	result.Environment = string(config.EnvDev) // default

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Platform Name").
				Description("1-32 lowercase alphanumeric characters or hyphens, starting with a letter").
				Placeholder("lakehouse").
				Value(&result.PlatformName).
				Validate(validatePlatformName),
			huh.NewSelect[string]().
				Title("Environment").
				Description("Sizing preset for replica counts and persistence").
				Options(EnvironmentsToOptions()...).
				Value(&result.Environment),
		).Title("Platform Identity"),
	).RunWithContext(ctx)
}

// runSecretsEngineGroup prompts for the Vault connection.
func runSecretsEngineGroup(ctx context.Context, result *WizardResult) error {
	result.VaultAddress = config.DefaultVaultAddress // default

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Vault Address").
				Description("Secrets engine API endpoint, in-cluster or external").
				Value(&result.VaultAddress).
				Validate(validateEndpoint),
		).Title("Secrets Engine"),
	).RunWithContext(ctx)
}

// runObjectStoreGroup prompts for the warehouse endpoint and buckets.
func runObjectStoreGroup(ctx context.Context, result *WizardResult) error {
	result.WarehouseEndpoint = config.DefaultWarehouseEndpoint // default
	bucketsInput := strings.Join(config.DefaultBuckets(), ", ")

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Warehouse Endpoint").
				Description("S3 API endpoint for the object store").
				Value(&result.WarehouseEndpoint).
				Validate(validateEndpoint),
			huh.NewInput().
				Title("Buckets").
				Description("Comma-separated bucket names created after the store is ready").
				Value(&bucketsInput).
				Validate(validateBuckets),
		).Title("Object Store"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	result.Buckets = parseList(bucketsInput)
	return nil
}

// runGitOpsGroup prompts for the declarative-content repository (optional).
func runGitOpsGroup(ctx context.Context, result *WizardResult) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitOps Repository (Optional)").
				Description("Git repository with platform DAGs and app manifests. Leave empty to skip app registration.").
				Placeholder("https://github.com/org/platform-apps.git (or leave empty)").
				Value(&result.GitOpsRepoURL).
				Validate(validateRepoURL),
		).Title("GitOps"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	// Revision only matters when a repository is tracked
	if result.GitOpsRepoURL != "" {
		result.GitOpsRevision = config.DefaultGitOpsRevision

		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Revision").
					Description("Branch, tag, or commit to track").
					Value(&result.GitOpsRevision),
			).Title("GitOps Revision"),
		).RunWithContext(ctx)
	}

	return nil
}

// runConsumersGroup prompts for secret consumer selection.
func runConsumersGroup(ctx context.Context, result *WizardResult) error {
	options := make([]huh.Option[string], len(Consumers))
	defaultSelected := []string{}

	for i, c := range Consumers {
		options[i] = huh.NewOption(c.Label+" - "+c.Description, c.Key)
		if c.Default {
			defaultSelected = append(defaultSelected, c.Key)
		}
	}

	result.EnabledConsumers = defaultSelected

	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Secret Consumers").
				Description("Services that receive credentials through the secret sync pipeline").
				Options(options...).
				Value(&result.EnabledConsumers),
		).Title("Consumers"),
	).RunWithContext(ctx)
}

// runKubeAccessGroup prompts for cluster connection options (advanced mode).
func runKubeAccessGroup(ctx context.Context, opts *AdvancedOptions) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kubeconfig Path (Optional)").
				Description("Leave empty to use $KUBECONFIG or ~/.kube/config").
				Placeholder("~/.kube/config (or leave empty)").
				Value(&opts.Kubeconfig),
			huh.NewInput().
				Title("Context (Optional)").
				Description("Leave empty to use the kubeconfig's current context").
				Value(&opts.KubeContext),
		).Title("Kubernetes Access"),
	).RunWithContext(ctx)
}

// runOverridesGroup prompts for region and namespace overrides (advanced mode).
func runOverridesGroup(ctx context.Context, opts *AdvancedOptions) error {
	opts.WarehouseRegion = config.DefaultWarehouseRegion
	opts.GitOpsNamespace = config.DefaultGitOpsNamespace

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Warehouse Region").
				Description("S3 region name the client signs requests with").
				Value(&opts.WarehouseRegion),
			huh.NewInput().
				Title("GitOps Namespace").
				Description("Namespace where the GitOps controller runs").
				Value(&opts.GitOpsNamespace).
				Validate(validateNamespace),
		).Title("Overrides"),
	).RunWithContext(ctx)
}

// validatePlatformName validates the platform name format.
func validatePlatformName(s string) error {
	if s == "" {
		return errPlatformNameRequired
	}
	if !platformNameRegex.MatchString(s) || strings.Contains(s, "--") {
		return errPlatformNameInvalid
	}
	return nil
}

// validateEndpoint validates an http(s) endpoint URL.
func validateEndpoint(s string) error {
	if s == "" {
		return errEndpointRequired
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errEndpointInvalid
	}
	return nil
}

// validateBuckets validates a comma-separated list of bucket names.
func validateBuckets(s string) error {
	buckets := parseList(s)
	if len(buckets) == 0 {
		return errBucketsRequired
	}
	for _, b := range buckets {
		if !bucketNameRegex.MatchString(b) {
			return errBucketNameInvalid
		}
	}
	return nil
}

// validateRepoURL validates a git repository address. Empty is allowed and
// skips app registration.
func validateRepoURL(s string) error {
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "git@") {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "ssh") {
		return errRepoURLInvalid
	}
	return nil
}

// validateNamespace validates a namespace name.
func validateNamespace(s string) error {
	if s == "" {
		return nil
	}
	if !platformNameRegex.MatchString(s) {
		return errNamespaceInvalid
	}
	return nil
}

// parseList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func parseList(input string) []string {
	parts := strings.Split(input, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
