package wizard

import (
	"os"
	"strings"
	"testing"

	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/secrets"
)

func TestBuildConfig(t *testing.T) {
	result := &WizardResult{
		PlatformName:      "lakehouse",
		Environment:       "staging",
		VaultAddress:      "http://vault.vault.svc:8200",
		WarehouseEndpoint: "http://minio.minio.svc:9000",
		Buckets:           []string{"warehouse", "lakehouse-staging", "airflow-logs"},
		GitOpsRepoURL:     "https://github.com/org/platform-apps.git",
		GitOpsRevision:    "main",
		EnabledConsumers:  []string{"hive-metastore", "kyuubi", "airflow"},
	}

	cfg := BuildConfig(result)

	// Verify identity
	if cfg.Platform.Name != "lakehouse" {
		t.Errorf("Platform.Name = %q, want %q", cfg.Platform.Name, "lakehouse")
	}
	if cfg.Platform.Environment != config.EnvStaging {
		t.Errorf("Platform.Environment = %q, want staging", cfg.Platform.Environment)
	}

	// Verify connections
	if cfg.Vault.Address != "http://vault.vault.svc:8200" {
		t.Errorf("Vault.Address = %q, want the wizard answer", cfg.Vault.Address)
	}
	if cfg.Warehouse.Endpoint != "http://minio.minio.svc:9000" {
		t.Errorf("Warehouse.Endpoint = %q, want the wizard answer", cfg.Warehouse.Endpoint)
	}
	if len(cfg.Warehouse.Buckets) != 3 {
		t.Errorf("Warehouse.Buckets = %v, want 3 entries", cfg.Warehouse.Buckets)
	}

	// Verify gitops
	if cfg.GitOps.RepoURL != "https://github.com/org/platform-apps.git" {
		t.Errorf("GitOps.RepoURL = %q, want the wizard answer", cfg.GitOps.RepoURL)
	}
	if cfg.GitOps.Revision != "main" {
		t.Errorf("GitOps.Revision = %q, want main", cfg.GitOps.Revision)
	}

	// Verify consumers carry their conventional namespaces
	if len(cfg.Consumers) != 3 {
		t.Fatalf("Consumers length = %d, want 3", len(cfg.Consumers))
	}
	wantNamespaces := map[string]string{
		"hive-metastore": "metastore",
		"kyuubi":         "kyuubi",
		"airflow":        "airflow",
	}
	for _, c := range cfg.Consumers {
		if want := wantNamespaces[c.Name]; c.Namespace != want {
			t.Errorf("consumer %s namespace = %q, want %q", c.Name, c.Namespace, want)
		}
	}
}

func TestBuildConfig_NoGitOps(t *testing.T) {
	result := &WizardResult{
		PlatformName:      "lakehouse",
		Environment:       "dev",
		VaultAddress:      config.DefaultVaultAddress,
		WarehouseEndpoint: config.DefaultWarehouseEndpoint,
		Buckets:           config.DefaultBuckets(),
		EnabledConsumers:  []string{"airflow"},
	}

	cfg := BuildConfig(result)

	if cfg.GitOps.RepoURL != "" || cfg.GitOps.Revision != "" {
		t.Errorf("GitOps = %+v, want zero section when no repository given", cfg.GitOps)
	}
}

func TestBuildConfig_UnknownConsumerIgnored(t *testing.T) {
	result := &WizardResult{
		PlatformName:     "lakehouse",
		Environment:      "dev",
		EnabledConsumers: []string{"airflow", "not-a-service"},
	}

	cfg := BuildConfig(result)

	if len(cfg.Consumers) != 1 || cfg.Consumers[0].Name != "airflow" {
		t.Errorf("Consumers = %+v, want only the known airflow entry", cfg.Consumers)
	}
}

func TestBuildConfigWithAdvancedOptions(t *testing.T) {
	result := &WizardResult{
		PlatformName:      "lakehouse",
		Environment:       "prod",
		VaultAddress:      "https://vault.example.com",
		WarehouseEndpoint: "https://s3.example.com",
		Buckets:           []string{"warehouse"},
		EnabledConsumers:  []string{"kyuubi"},
		AdvancedOptions: &AdvancedOptions{
			Kubeconfig:      "/etc/ldp/kubeconfig",
			KubeContext:     "prod-cluster",
			WarehouseRegion: "eu-central-1",
			GitOpsNamespace: "gitops",
		},
	}

	cfg := BuildConfig(result)

	if cfg.Kube.Kubeconfig != "/etc/ldp/kubeconfig" {
		t.Errorf("Kube.Kubeconfig = %q, want advanced value", cfg.Kube.Kubeconfig)
	}
	if cfg.Kube.Context != "prod-cluster" {
		t.Errorf("Kube.Context = %q, want advanced value", cfg.Kube.Context)
	}
	if cfg.Warehouse.Region != "eu-central-1" {
		t.Errorf("Warehouse.Region = %q, want advanced value", cfg.Warehouse.Region)
	}
	if cfg.GitOps.Namespace != "gitops" {
		t.Errorf("GitOps.Namespace = %q, want advanced value", cfg.GitOps.Namespace)
	}
}

func TestBuildConfig_ProducesLoadableConfig(t *testing.T) {
	// The generated file must survive the loader's own validation.
	t.Setenv("VAULT_ADDR", "")
	t.Setenv("WAREHOUSE_ENDPOINT", "")

	result := &WizardResult{
		PlatformName:      "lakehouse",
		Environment:       "dev",
		VaultAddress:      config.DefaultVaultAddress,
		WarehouseEndpoint: config.DefaultWarehouseEndpoint,
		Buckets:           config.DefaultBuckets(),
		EnabledConsumers:  []string{"hive-metastore", "kyuubi", "airflow"},
	}

	cfg := BuildConfig(result)

	tmpFile, err := os.CreateTemp("", "ldpctl-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	if err := WriteConfig(cfg, tmpFile.Name(), false); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := config.Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() on generated config: %v", err)
	}

	// The loader fills in the consumer defaults the wizard left out.
	bindings := loaded.Bindings()
	if len(bindings) != 3 {
		t.Fatalf("Bindings length = %d, want 3", len(bindings))
	}
	for _, b := range bindings {
		if b.ServiceAccount != b.Consumer {
			t.Errorf("consumer %s service account = %q, want defaulted to name", b.Consumer, b.ServiceAccount)
		}
		if b.Access != secrets.AccessRead {
			t.Errorf("consumer %s access = %q, want read", b.Consumer, b.Access)
		}
	}
}

func TestWriteConfig(t *testing.T) {
	result := &WizardResult{
		PlatformName:      "lakehouse",
		Environment:       "dev",
		VaultAddress:      config.DefaultVaultAddress,
		WarehouseEndpoint: config.DefaultWarehouseEndpoint,
		Buckets:           config.DefaultBuckets(),
		EnabledConsumers:  []string{"airflow"},
	}

	cfg := BuildConfig(result)

	tmpFile, err := os.CreateTemp("", "ldpctl-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	if err := WriteConfig(cfg, tmpFile.Name(), false); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	s := string(content)
	if !strings.Contains(s, "name: lakehouse") {
		t.Error("Missing platform name in output")
	}
	if !strings.Contains(s, "# ldpctl platform configuration") {
		t.Error("Missing header comment in output")
	}
	// Verify the header contains the actual output path.
	if !strings.Contains(s, tmpFile.Name()) {
		t.Errorf("Header should contain output path %q", tmpFile.Name())
	}

	t.Logf("Generated config:\n%s", s)
}

func TestParseList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"warehouse", []string{"warehouse"}},
		{"warehouse, raw-zone", []string{"warehouse", "raw-zone"}},
		{"a1,b2,c3", []string{"a1", "b2", "c3"}},
		{"  warehouse  ,  raw-zone  ", []string{"warehouse", "raw-zone"}},
		{"warehouse,,raw-zone", []string{"warehouse", "raw-zone"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		result := parseList(tt.input)
		if len(result) != len(tt.expected) {
			t.Errorf("parseList(%q) = %v, want %v", tt.input, result, tt.expected)
			continue
		}
		for i, v := range result {
			if v != tt.expected[i] {
				t.Errorf("parseList(%q)[%d] = %q, want %q", tt.input, i, v, tt.expected[i])
			}
		}
	}
}

func TestValidatePlatformName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"lakehouse", false},
		{"ldp-prod", false},
		{"a", false},
		{"data-platform-2026", false},
		{"", true},                // empty
		{"-invalid", true},        // starts with hyphen
		{"invalid-", true},        // ends with hyphen
		{"1platform", true},       // starts with digit
		{"UPPERCASE", true},       // uppercase
		{"has_underscore", true},  // underscore
		{"double--hyphen", true},  // consecutive hyphens
		{"this-is-a-very-long-platform-name-exceeding", true}, // too long
	}

	for _, tt := range tests {
		err := validatePlatformName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePlatformName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		wantErr  bool
	}{
		{"http://vault.vault.svc:8200", false},
		{"https://vault.example.com", false},
		{"http://localhost:9000", false},

		{"", true},                      // empty
		{"vault.vault.svc:8200", true},  // missing scheme
		{"ftp://vault.example.com", true}, // wrong scheme
		{"http://", true},               // missing host
		{"not a url", true},             // invalid format
	}

	for _, tt := range tests {
		err := validateEndpoint(tt.endpoint)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateEndpoint(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
		}
	}
}

func TestValidateBuckets(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"warehouse", false},
		{"warehouse, lakehouse-staging, airflow-logs", false},
		{"my.bucket", false},
		{"warehouse,,raw-zone", false}, // empty entries dropped

		{"", true},          // no buckets
		{"ab", true},        // too short
		{"Warehouse", true}, // uppercase
		{"bucket_", true},   // underscore
		{"-bucket", true},   // starts with hyphen
	}

	for _, tt := range tests {
		err := validateBuckets(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateBuckets(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateRepoURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", false}, // empty skips app registration
		{"https://github.com/org/platform-apps.git", false},
		{"git@github.com:org/platform-apps.git", false},
		{"ssh://git@github.com/org/platform-apps.git", false},

		{"not a url", true},
		{"ftp://github.com/org/repo.git", true},
	}

	for _, tt := range tests {
		err := validateRepoURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateRepoURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		namespace string
		wantErr   bool
	}{
		{"", false}, // empty falls back to the default
		{"argocd", false},
		{"gitops-system", false},

		{"Argo", true},
		{"ns_with_underscore", true},
	}

	for _, tt := range tests {
		err := validateNamespace(tt.namespace)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateNamespace(%q) error = %v, wantErr %v", tt.namespace, err, tt.wantErr)
		}
	}
}

func TestContainsConsumer(t *testing.T) {
	consumers := []string{"hive-metastore", "kyuubi", "airflow"}

	tests := []struct {
		consumer string
		want     bool
	}{
		{"hive-metastore", true},
		{"kyuubi", true},
		{"airflow", true},
		{"superset", false},
		{"", false},
	}

	for _, tt := range tests {
		got := containsConsumer(consumers, tt.consumer)
		if got != tt.want {
			t.Errorf("containsConsumer(%v, %q) = %v, want %v", consumers, tt.consumer, got, tt.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-exists-*.txt")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	if !FileExists(tmpFile.Name()) {
		t.Errorf("FileExists(%q) = false, want true", tmpFile.Name())
	}

	if FileExists("/nonexistent/path/file.txt") {
		t.Error("FileExists(/nonexistent/path/file.txt) = true, want false")
	}
}

func TestEnvironmentsToOptions(t *testing.T) {
	opts := EnvironmentsToOptions()
	if len(opts) != len(Environments) {
		t.Errorf("EnvironmentsToOptions() returned %d options, want %d", len(opts), len(Environments))
	}
}

func TestConsumersToOptions(t *testing.T) {
	opts := ConsumersToOptions()
	if len(opts) != len(Consumers) {
		t.Errorf("ConsumersToOptions() returned %d options, want %d", len(opts), len(Consumers))
	}
}

func TestFindConsumer(t *testing.T) {
	c, ok := FindConsumer("kyuubi")
	if !ok {
		t.Fatal("FindConsumer(kyuubi) not found")
	}
	if c.Namespace != "kyuubi" {
		t.Errorf("FindConsumer(kyuubi).Namespace = %q, want kyuubi", c.Namespace)
	}

	if _, ok := FindConsumer("unknown"); ok {
		t.Error("FindConsumer(unknown) = found, want not found")
	}
}
