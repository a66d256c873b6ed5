package helm

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
)

// Renderer renders helm charts with provided values. Rendering is purely
// local: the engine produces manifests without talking to a cluster, so
// the orchestrator owns the apply path for every resource.
type Renderer struct {
	releaseName string
	namespace   string
}

// NewRenderer creates a renderer for the given release name and target
// namespace.
func NewRenderer(releaseName, namespace string) *Renderer {
	return &Renderer{
		releaseName: releaseName,
		namespace:   namespace,
	}
}

// RenderFromSpec downloads a chart and renders it with the provided
// values. The release name matches the chart name, which keeps generated
// resource names aligned with the readiness checks in the built-in plan.
func RenderFromSpec(ctx context.Context, spec ChartSpec, namespace string, values Values) ([]byte, error) {
	return RenderRelease(ctx, spec, spec.Name, namespace, values)
}

// RenderRelease downloads a chart and renders it under an explicit release
// name, for phases whose release differs from the chart name.
func RenderRelease(ctx context.Context, spec ChartSpec, releaseName, namespace string, values Values) ([]byte, error) {
	loadedChart, err := DownloadChart(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to download chart: %w", err)
	}

	renderer := &Renderer{
		releaseName: releaseName,
		namespace:   namespace,
	}

	manifests, err := renderer.renderChart(loadedChart, values)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return manifests, nil
}

// RenderFromPath renders a chart from a local filesystem path with the
// provided values. Used for charts vendored into the binary and in tests.
func RenderFromPath(chartPath, releaseName, namespace string, values Values) ([]byte, error) {
	loadedChart, err := loadChartFromPath(chartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}

	renderer := &Renderer{
		releaseName: releaseName,
		namespace:   namespace,
	}

	manifests, err := renderer.renderChart(loadedChart, values)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return manifests, nil
}

// renderChart runs the helm engine over the chart with the merged values
// and joins the rendered documents into one manifest stream.
func (r *Renderer) renderChart(ch *chart.Chart, values Values) ([]byte, error) {
	chartDefaults := make(Values)
	if len(ch.Values) > 0 {
		chartDefaults = Values(ch.Values)
	}

	// Deep merge so nested objects from values.yaml survive partial
	// overrides (e.g. overriding image.tag keeps image.repository).
	mergedValues := deepMerge(chartDefaults, values)
	plainMap := mergedValues.ToMap()

	chartValues := chartutil.Values(plainMap)

	releaseOptions := chartutil.ReleaseOptions{
		Name:      r.releaseName,
		Namespace: r.namespace,
		IsInstall: true,
	}

	// Advertise a modern kube version so chart templates emit current
	// API versions (policy/v1, networking.k8s.io/v1).
	capabilities := chartutil.DefaultCapabilities.Copy()
	capabilities.KubeVersion.Version = "v1.31.0"
	capabilities.KubeVersion.Major = "1"
	capabilities.KubeVersion.Minor = "31"

	valuesToRender, err := chartutil.ToRenderValues(ch, chartValues, releaseOptions, capabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare values: %w", err)
	}

	eng := engine.Engine{
		Strict:   false,
		LintMode: false,
	}

	rendered, err := eng.Render(ch, valuesToRender)
	if err != nil {
		return nil, fmt.Errorf("failed to render templates: %w", err)
	}

	// Stable template order keeps the manifest stream, and therefore the
	// descriptor order derived from it, identical across runs.
	names := make([]string, 0, len(rendered))
	for name := range rendered {
		names = append(names, name)
	}
	sort.Strings(names)

	var combined bytes.Buffer
	for _, name := range names {
		if filepath.Base(name) == "NOTES.txt" {
			continue
		}

		trimmed := strings.TrimSpace(rendered[name])
		if trimmed == "" {
			continue
		}

		if combined.Len() > 0 {
			combined.WriteString("\n---\n")
		}
		combined.WriteString(trimmed)
		combined.WriteString("\n")
	}

	return combined.Bytes(), nil
}
