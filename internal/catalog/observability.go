package catalog

import (
	"context"

	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
)

// observabilityPhase deploys the monitoring stack. The whole phase is
// optional: a failure degrades to a warning and never blocks the platform.
func (b *Builder) observabilityPhase(ctx context.Context) (*orchestrate.Phase, error) {
	descriptors, err := b.chartDescriptors(ctx, "kube-prometheus-stack", NamespaceObservability, b.buildObservabilityValues())
	if err != nil {
		return nil, err
	}

	store, err := b.storeFor(PhaseObservability, descriptors)
	if err != nil {
		return nil, err
	}

	checks := []orchestrate.ReadinessCheck{
		b.optionalCheck("operator rollout", orchestrate.TargetDeployment, NamespaceObservability, "kube-prometheus-stack-operator"),
	}

	phase := b.phase(PhaseObservability, "monitoring stack",
		[]string{PhaseNamespaces}, store, checks)
	phase.Optional = true
	return phase, nil
}

// buildObservabilityValues sizes the monitoring stack per environment and
// opens the monitor selectors so every platform service can register its
// own scrape targets.
func (b *Builder) buildObservabilityValues() helm.Values {
	s := sizingFor(b.cfg.Environment())

	return helm.Values{
		"prometheus": helm.Values{
			"prometheusSpec": helm.Values{
				"retention": s.prometheusRetention,
				"resources": s.resources(),
				"serviceMonitorSelectorNilUsesHelmValues": false,
				"podMonitorSelectorNilUsesHelmValues":     false,
			},
		},
		"alertmanager": helm.Values{"enabled": s.ha},
		"grafana": helm.Values{
			"enabled":   true,
			"resources": helm.ResourceProfile("100m", "128Mi", "500m", "512Mi"),
		},
		"prometheusOperator": helm.Values{
			"resources": helm.ResourceProfile("100m", "128Mi", "500m", "512Mi"),
		},
	}
}
