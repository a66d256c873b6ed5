package helm

// ChartSpec identifies a chart by repository, name, and pinned version.
type ChartSpec struct {
	Repository string
	Name       string
	Version    string
}

// Override carries user-supplied chart settings from the platform config.
// Empty fields keep the registry default.
type Override struct {
	Repository string
	Chart      string
	Version    string
}

// GetChartSpec returns the chart spec for the given service name,
// applying any overrides. Services without a registry entry return an
// empty spec; callers should treat that as a configuration error.
func GetChartSpec(name string, override Override) ChartSpec {
	spec, ok := DefaultChartSpecs[name]
	if !ok {
		return ChartSpec{}
	}

	if override.Repository != "" {
		spec.Repository = override.Repository
	}
	if override.Chart != "" {
		spec.Name = override.Chart
	}
	if override.Version != "" {
		spec.Version = override.Version
	}

	return spec
}
