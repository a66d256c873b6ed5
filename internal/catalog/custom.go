package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/helm"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
)

// customPlan converts user-declared phases into the runtime plan. A
// non-empty phase list replaces the built-in platform plan entirely;
// validation has already checked names, dependency references, and
// duration syntax.
func (b *Builder) customPlan(ctx context.Context) (orchestrate.Plan, error) {
	plan := make(orchestrate.Plan, 0, len(b.cfg.Phases))
	for _, pc := range b.cfg.Phases {
		phase, err := b.customPhase(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", pc.Name, err)
		}
		plan = append(plan, phase)
	}
	return plan, nil
}

// customPhase materializes one declared phase: manifest files and
// directories load from disk, charts render at build time, and unset
// timeouts fall back to the run-level defaults.
func (b *Builder) customPhase(ctx context.Context, pc config.PhaseConfig) (*orchestrate.Phase, error) {
	source := descriptor.NewStore()

	for _, path := range pc.Manifests {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("manifest source %s: %w", path, err)
		}
		if info.IsDir() {
			err = source.AddDir(path)
		} else {
			err = source.AddFile(path)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, chart := range pc.Charts {
		manifest, err := b.render(ctx, chart.Spec(), chart.ReleaseName(), chart.Namespace, helm.Values(chart.Values))
		if err != nil {
			return nil, fmt.Errorf("render chart %s: %w", chart.Name, err)
		}
		if err := source.AddManifest(manifest); err != nil {
			return nil, fmt.Errorf("decode chart %s manifest: %w", chart.Name, err)
		}
	}

	store, err := b.storeFor(pc.Name, source.List())
	if err != nil {
		return nil, err
	}

	checks := make([]orchestrate.ReadinessCheck, len(pc.Checks))
	for i, cc := range pc.Checks {
		check := cc.Check()
		if check.Timeout <= 0 {
			check.Timeout = b.timeouts.Check
		}
		checks[i] = check
	}

	phase := b.phase(pc.Name, "declared phase", pc.DependsOn, store, checks)
	phase.Optional = pc.Optional
	if timeout := pc.TimeoutDuration(); timeout > 0 {
		phase.Timeout = timeout
	}
	if pc.Retry != nil {
		phase.Retry = pc.Retry.Policy()
	}
	return phase, nil
}
