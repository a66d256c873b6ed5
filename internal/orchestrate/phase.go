// Package orchestrate drives the deployment run: it executes phases in
// dependency order, applies each phase's resource descriptors, gates on
// readiness, and tracks per-phase execution state.
package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/graph"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// CheckTarget names the kind of condition a readiness check polls.
type CheckTarget string

const (
	// TargetDeployment waits for a deployment's rollout to be available.
	TargetDeployment CheckTarget = "deployment"
	// TargetStatefulSet waits for a statefulset's replicas to be ready.
	TargetStatefulSet CheckTarget = "statefulset"
	// TargetPods waits for all pods matching a label selector to be ready.
	TargetPods CheckTarget = "pods"
	// TargetEndpoints waits for a service to have ready endpoints.
	TargetEndpoints CheckTarget = "endpoints"
	// TargetCRD waits for a CRD to be established.
	TargetCRD CheckTarget = "crd"
	// TargetSecret waits for a secret to exist with data.
	TargetSecret CheckTarget = "secret"
	// TargetApplication waits for an Argo CD application to be synced and healthy.
	TargetApplication CheckTarget = "application"
)

// ReadinessCheck is one condition the gate polls after a phase's resources
// are applied. Required checks block the phase; optional ones degrade to a
// warning on timeout.
type ReadinessCheck struct {
	// Name identifies the check in logs and status output.
	Name string
	// Target selects which inspection to run.
	Target CheckTarget
	// Namespace scopes the inspection. Ignored for cluster-scoped targets.
	Namespace string
	// Ref is the object name, or a label selector for the pods target.
	Ref string
	// Timeout bounds how long the gate waits for this check.
	Timeout time.Duration
	// Required decides whether a timeout is fatal or a warning.
	Required bool
}

// DisplayName returns the check's name, or a derived one when unset.
func (c ReadinessCheck) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Namespace != "" {
		return fmt.Sprintf("%s %s/%s", c.Target, c.Namespace, c.Ref)
	}
	return fmt.Sprintf("%s %s", c.Target, c.Ref)
}

// HookFunc is custom phase logic that talks to systems beyond manifest
// applies: the secrets bootstrap, bucket creation. Hooks own their retry
// behavior; errors marked with retry.Fatal make the phase Fatal.
type HookFunc func(ctx context.Context) error

// Phase is one unit of the deployment plan. Immutable during a run.
type Phase struct {
	// Name identifies the phase in the graph, logs and status output.
	Name string
	// Description is a one-line summary for plan rendering.
	Description string
	// DependsOn names the phases that must succeed before this one starts.
	DependsOn []string
	// Resources holds the descriptors this phase owns.
	Resources *descriptor.Store
	// Checks are the readiness conditions gating completion.
	Checks []ReadinessCheck
	// Timeout bounds the whole phase, apply and gate included. Zero means
	// no phase-level bound; per-check timeouts still apply.
	Timeout time.Duration
	// Retry bounds per-resource apply attempts and conflict recovery.
	Retry retry.Policy
	// Optional phases never block their dependents, whatever their outcome.
	Optional bool
	// PreApply runs before any resource is applied.
	PreApply HookFunc
	// PostReady runs after the gate opens, as the phase's final step.
	PostReady HookFunc
}

// ResourceCount returns the number of descriptors the phase owns.
func (p *Phase) ResourceCount() int {
	if p.Resources == nil {
		return 0
	}
	return p.Resources.Len()
}

// Plan is an ordered list of phases as declared in configuration.
type Plan []*Phase

// Names returns the phase names in declaration order.
func (p Plan) Names() []string {
	out := make([]string, len(p))
	for i, phase := range p {
		out[i] = phase.Name
	}
	return out
}

// Find returns the named phase, or nil.
func (p Plan) Find(name string) *Phase {
	for _, phase := range p {
		if phase.Name == name {
			return phase
		}
	}
	return nil
}

// Graph validates the plan's dependency declarations and returns the
// execution graph. Cycles, dangling references and duplicates fail here,
// before any platform call.
func (p Plan) Graph() (*graph.Graph, error) {
	specs := make([]graph.Spec, len(p))
	for i, phase := range p {
		specs[i] = graph.Spec{Name: phase.Name, DependsOn: phase.DependsOn}
	}

	g, err := graph.Build(specs)
	if err != nil {
		return nil, fmt.Errorf("invalid phase plan: %w", err)
	}
	return g, nil
}
