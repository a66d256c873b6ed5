package helm

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/repo"
)

// Charts are cached twice: in memory for the lifetime of the process
// (convergence passes render the same charts repeatedly) and on disk
// keyed by name-version so later runs skip the download entirely.
var (
	chartCacheMu sync.Mutex
	chartCache   = make(map[string]*chart.Chart)
)

// DownloadChart fetches the chart described by spec, preferring the
// in-memory and on-disk caches over the network.
func DownloadChart(ctx context.Context, spec ChartSpec) (*chart.Chart, error) {
	cacheKey := fmt.Sprintf("%s-%s", spec.Name, spec.Version)

	chartCacheMu.Lock()
	if cached, ok := chartCache[cacheKey]; ok {
		chartCacheMu.Unlock()
		return cached, nil
	}
	chartCacheMu.Unlock()

	archivePath := filepath.Join(getCachePath(), cacheKey+".tgz")
	if _, err := os.Stat(archivePath); err == nil {
		ch, loadErr := loadChartFromPath(archivePath)
		if loadErr == nil {
			storeInMemoryCache(cacheKey, ch)
			return ch, nil
		}
		// Corrupt archive: drop it and download fresh.
		_ = os.Remove(archivePath)
	}

	ch, data, err := fetchChart(ctx, spec)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(getCachePath(), 0o750); err == nil {
		_ = os.WriteFile(archivePath, data, 0o600)
	}

	storeInMemoryCache(cacheKey, ch)
	return ch, nil
}

// fetchChart resolves the chart URL in its repository index and downloads
// the archive.
func fetchChart(ctx context.Context, spec ChartSpec) (*chart.Chart, []byte, error) {
	settings := cli.New()
	getters := getter.All(settings)

	chartURL, err := repo.FindChartInRepoURL(
		spec.Repository,
		spec.Name,
		spec.Version,
		"", "", "",
		getters,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find chart %s in repo %s: %w", spec.Name, spec.Repository, err)
	}

	parsed, err := url.Parse(chartURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chart URL %s: %w", chartURL, err)
	}

	g, err := getters.ByScheme(parsed.Scheme)
	if err != nil {
		return nil, nil, fmt.Errorf("no getter for scheme %q: %w", parsed.Scheme, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	buf, err := g.Get(chartURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download chart from %s: %w", chartURL, err)
	}

	ch, err := loader.LoadArchive(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load downloaded chart %s: %w", spec.Name, err)
	}

	return ch, buf.Bytes(), nil
}

func storeInMemoryCache(key string, ch *chart.Chart) {
	chartCacheMu.Lock()
	chartCache[key] = ch
	chartCacheMu.Unlock()
}

// loadChartFromPath loads a chart from a local archive or unpacked
// chart directory.
func loadChartFromPath(path string) (*chart.Chart, error) {
	ch, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart from %s: %w", path, err)
	}
	return ch, nil
}

// GetCachePath returns the directory holding downloaded chart archives.
func GetCachePath() string {
	return getCachePath()
}

func getCachePath() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ldpctl", "charts")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ldpctl", "charts")
	}
	return filepath.Join(home, ".cache", "ldpctl", "charts")
}

// ClearMemoryCache drops all charts cached in memory.
func ClearMemoryCache() {
	chartCacheMu.Lock()
	chartCache = make(map[string]*chart.Chart)
	chartCacheMu.Unlock()
}

// ClearCache removes the on-disk chart cache and empties the in-memory
// cache.
func ClearCache() error {
	ClearMemoryCache()
	return clearCache()
}

func clearCache() error {
	return os.RemoveAll(getCachePath())
}
