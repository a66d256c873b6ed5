package orchestrate

import (
	"context"

	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
)

// CheckHealth is the live result of a single readiness check.
type CheckHealth struct {
	Check     ReadinessCheck `json:"check"`
	Satisfied bool           `json:"satisfied"`
	Detail    string         `json:"detail"`
}

// PhaseHealth is the live state of one phase: which declared resources exist
// on the cluster and which readiness checks currently pass. It is computed
// fresh on every call and never consults stored run state.
type PhaseHealth struct {
	Phase            string        `json:"phase"`
	Optional         bool          `json:"optional,omitempty"`
	ResourcesTotal   int           `json:"resourcesTotal"`
	ResourcesPresent int           `json:"resourcesPresent"`
	MissingResources []string      `json:"missingResources,omitempty"`
	Checks           []CheckHealth `json:"checks,omitempty"`
}

// Healthy reports whether every resource exists and every check passes.
func (h PhaseHealth) Healthy() bool {
	if h.ResourcesPresent < h.ResourcesTotal {
		return false
	}
	for _, c := range h.Checks {
		if !c.Satisfied {
			return false
		}
	}
	return true
}

// Deployed reports whether any declared resource exists at all, which
// distinguishes "unhealthy" from "never deployed".
func (h PhaseHealth) Deployed() bool {
	return h.ResourcesPresent > 0
}

// InspectPlan queries the cluster for the current state of every phase in
// plan order. Each check is evaluated exactly once, with no polling, so the
// result is a snapshot rather than a convergence wait.
func InspectPlan(ctx context.Context, client kube.Client, plan Plan) ([]PhaseHealth, error) {
	health := make([]PhaseHealth, 0, len(plan))
	for _, phase := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := PhaseHealth{
			Phase:    phase.Name,
			Optional: phase.Optional,
		}

		for _, d := range phase.Resources.List() {
			h.ResourcesTotal++
			exists, err := client.Exists(ctx, d.Object)
			if err != nil {
				h.MissingResources = append(h.MissingResources, d.Key().String())
				continue
			}
			if exists {
				h.ResourcesPresent++
			} else {
				h.MissingResources = append(h.MissingResources, d.Key().String())
			}
		}

		for _, check := range phase.Checks {
			ok, detail, err := evaluateCheck(ctx, client, check)
			if err != nil {
				ok, detail = false, err.Error()
			}
			h.Checks = append(h.Checks, CheckHealth{
				Check:     check,
				Satisfied: ok,
				Detail:    detail,
			})
		}

		health = append(health, h)
	}
	return health, nil
}
