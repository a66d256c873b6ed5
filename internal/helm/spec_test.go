package helm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChartSpec(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		service  string
		override Override
		wantRepo string
		wantName string
		wantVer  string
	}{
		{
			name:     "vault defaults",
			service:  "vault",
			override: Override{},
			wantRepo: "https://helm.releases.hashicorp.com",
			wantName: "vault",
			wantVer:  "0.28.1",
		},
		{
			name:     "minio defaults",
			service:  "minio",
			override: Override{},
			wantRepo: "https://charts.min.io/",
			wantName: "minio",
			wantVer:  "5.2.0",
		},
		{
			name:     "postgresql defaults",
			service:  "postgresql",
			override: Override{},
			wantRepo: "https://charts.bitnami.com/bitnami",
			wantName: "postgresql",
			wantVer:  "15.5.38",
		},
		{
			name:    "version override",
			service: "airflow",
			override: Override{
				Version: "1.14.0",
			},
			wantRepo: "https://airflow.apache.org",
			wantName: "airflow",
			wantVer:  "1.14.0",
		},
		{
			name:    "repository override",
			service: "argo-cd",
			override: Override{
				Repository: "https://mirror.example.com/argo",
			},
			wantRepo: "https://mirror.example.com/argo",
			wantName: "argo-cd",
			wantVer:  "7.7.5",
		},
		{
			name:    "chart name override",
			service: "kyuubi",
			override: Override{
				Chart: "kyuubi-server",
			},
			wantRepo: "https://apache.github.io/kyuubi",
			wantName: "kyuubi-server",
			wantVer:  "v1.9.2",
		},
		{
			name:    "all overrides",
			service: "minio",
			override: Override{
				Repository: "https://charts.example.com",
				Chart:      "my-minio",
				Version:    "9.9.9",
			},
			wantRepo: "https://charts.example.com",
			wantName: "my-minio",
			wantVer:  "9.9.9",
		},
		{
			name:     "unknown service returns empty",
			service:  "unknown-service",
			override: Override{},
			wantRepo: "",
			wantName: "",
			wantVer:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec := GetChartSpec(tt.service, tt.override)

			assert.Equal(t, tt.wantRepo, spec.Repository)
			assert.Equal(t, tt.wantName, spec.Name)
			assert.Equal(t, tt.wantVer, spec.Version)
		})
	}
}

func TestDefaultChartSpecsComplete(t *testing.T) {
	t.Parallel()
	expectedServices := []string{
		"vault",
		"vault-secrets-operator",
		"minio",
		"postgresql",
		"argo-cd",
		"kyuubi",
		"airflow",
		"kube-prometheus-stack",
	}

	for _, service := range expectedServices {
		t.Run(service, func(t *testing.T) {
			t.Parallel()
			spec, ok := DefaultChartSpecs[service]
			require.True(t, ok, "DefaultChartSpecs missing entry for %s", service)
			assert.NotEmpty(t, spec.Repository, "Repository is empty for %s", service)
			assert.NotEmpty(t, spec.Name, "Name is empty for %s", service)
			assert.NotEmpty(t, spec.Version, "Version is empty for %s", service)
		})
	}
}

func TestGetCachePath(t *testing.T) {
	t.Parallel()
	cachePath := GetCachePath()

	assert.NotEmpty(t, cachePath)
	assert.Contains(t, cachePath, filepath.Join("ldpctl", "charts"))
}

func TestGetCachePath_WithXDGEnv(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/test-cache")

	cachePath := GetCachePath()
	assert.Equal(t, "/tmp/test-cache/ldpctl/charts", cachePath)
}

func TestGetCachePath_HomeDirFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")

	path := getCachePath()

	// Without HOME the path falls back to the temp dir; either way it
	// must stay rooted under ldpctl/charts.
	assert.NotEmpty(t, path)
	assert.Contains(t, path, filepath.Join("ldpctl", "charts"))
}

func TestClearMemoryCache(t *testing.T) {
	t.Parallel()

	ClearMemoryCache()
}

func TestClearCache_WithExistingContent(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmpDir)

	cachePath := getCachePath()
	require.NoError(t, os.MkdirAll(cachePath, 0o750))

	file1 := filepath.Join(cachePath, "minio-5.2.0.tgz")
	file2 := filepath.Join(cachePath, "vault-0.28.1.tgz")
	require.NoError(t, os.WriteFile(file1, []byte("minio"), 0o600))
	require.NoError(t, os.WriteFile(file2, []byte("vault"), 0o600))

	require.NoError(t, ClearCache())

	_, err := os.Stat(cachePath)
	assert.True(t, os.IsNotExist(err), "cache directory should be removed")
}

func TestLoadChartFromPath_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := loadChartFromPath("/nonexistent/chart/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load chart from")
}

func TestLoadChartFromPath_InvalidArchive(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	fakePath := filepath.Join(tmpDir, "fake-chart.tgz")
	require.NoError(t, os.WriteFile(fakePath, []byte("not a real chart"), 0o600))

	_, err := loadChartFromPath(fakePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load chart from")
}
