package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// DefaultInterval is the pause between convergence passes.
const DefaultInterval = time.Minute

// Repair reasons, used as log fields and metric labels.
const (
	reasonDrift   = "drift"
	reasonMissing = "missing"
)

// Result summarizes one convergence pass.
type Result struct {
	// Checked counts the descriptors inspected.
	Checked int
	// Repaired counts the descriptors reapplied after drift or disappearance.
	Repaired int
	// Recreated counts conflict recoveries (delete and recreate).
	Recreated int
	// Failures counts the descriptors that could not be converged this pass.
	Failures int
}

// Outcome labels the pass for logs and metrics.
func (r Result) Outcome() string {
	switch {
	case r.Failures > 0:
		return "degraded"
	case r.Repaired > 0:
		return "repaired"
	default:
		return "clean"
	}
}

// Reconciler re-applies a deployed plan's descriptors when live state drifts
// from the declaration. It only converges manifests; phase hooks and
// readiness gates belong to the deploy run and are never re-executed.
type Reconciler struct {
	client        kube.Client
	plan          orchestrate.Plan
	order         []string
	interval      time.Duration
	recreateWait  time.Duration
	log           logr.Logger
	notify        orchestrate.Notify
	enableMetrics bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithInterval sets the pause between passes.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) { r.interval = d }
}

// WithRecreateWait bounds the wait for deletion during conflict recovery.
func WithRecreateWait(d time.Duration) Option {
	return func(r *Reconciler) { r.recreateWait = d }
}

// WithLogger routes pass logging through a structured logger. The default
// discards logs.
func WithLogger(log logr.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithNotify registers a run event observer; the reconciler emits resource
// events as it repairs drift.
func WithNotify(fn orchestrate.Notify) Option {
	return func(r *Reconciler) { r.notify = fn }
}

// WithMetrics enables prometheus recording. The daemon turns this on; the
// CLI's converge mode never serves the registry and leaves it off.
func WithMetrics(enabled bool) Option {
	return func(r *Reconciler) { r.enableMetrics = enabled }
}

// New validates the plan's dependency graph and builds a reconciler that
// sweeps it in rollout order.
func New(client kube.Client, plan orchestrate.Plan, opts ...Option) (*Reconciler, error) {
	if client == nil {
		return nil, fmt.Errorf("kubernetes client is required")
	}

	g, err := plan.Graph()
	if err != nil {
		return nil, err
	}

	r := &Reconciler{
		client:       client,
		plan:         plan,
		order:        g.Order(),
		interval:     DefaultInterval,
		recreateWait: orchestrate.DefaultRecreateWait,
		log:          logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	return r, nil
}

// Run converges once immediately and then once per tick until ctx is
// canceled. Passes run inline in the loop, so they never overlap; a slow
// pass delays the next tick instead of stacking behind it. Run returns nil
// on cancellation, which lets it serve as a controller-runtime runnable.
func (r *Reconciler) Run(ctx context.Context) error {
	r.log.Info("convergence loop started", "interval", r.interval, "phases", len(r.order))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Pass(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("convergence loop stopped")
			return nil
		case <-ticker.C:
			r.Pass(ctx)
		}
	}
}

// Pass sweeps every phase in rollout order once. Failures land in the result
// and the sweep continues; a canceled context cuts the sweep short without
// recording a completed pass.
func (r *Reconciler) Pass(ctx context.Context) Result {
	started := time.Now()
	var res Result

	for _, name := range r.order {
		phase := r.plan.Find(name)
		if phase == nil || phase.ResourceCount() == 0 {
			continue
		}
		for _, d := range phase.Resources.List() {
			if ctx.Err() != nil {
				return res
			}
			res.Checked++
			r.convergeOne(ctx, phase, d, &res)
		}
	}

	elapsed := time.Since(started)
	r.recordPass(res.Outcome(), elapsed.Seconds())
	if res.Repaired > 0 || res.Failures > 0 {
		r.log.Info("convergence pass complete",
			"outcome", res.Outcome(),
			"checked", res.Checked,
			"repaired", res.Repaired,
			"recreated", res.Recreated,
			"failures", res.Failures,
			"duration", elapsed,
		)
	} else {
		r.log.V(1).Info("convergence pass complete", "outcome", res.Outcome(), "checked", res.Checked, "duration", elapsed)
	}
	return res
}

// convergeOne fetches the live copy of one descriptor and reapplies it when
// the declared fields drifted or the object is gone.
func (r *Reconciler) convergeOne(ctx context.Context, phase *orchestrate.Phase, d descriptor.Descriptor, res *Result) {
	key := d.Key().String()

	reason := reasonDrift
	live, err := r.client.Get(ctx, d.Object)
	switch {
	case apierrors.IsNotFound(err):
		reason = reasonMissing
	case err != nil:
		r.fail(ctx, phase.Name, key, res, fmt.Errorf("failed to fetch live state: %w", err))
		return
	case !Drifted(d.Object, live):
		return
	}

	if err := r.reapply(ctx, phase, d, res); err != nil {
		r.fail(ctx, phase.Name, key, res, fmt.Errorf("failed to reapply after %s: %w", reason, err))
		return
	}

	res.Repaired++
	r.recordRepair(phase.Name, reason)
	r.emit(orchestrate.EventResourceApplied, phase.Name, key, "reapplied ("+reason+")", nil)
}

// reapply restores the declared object. A conflict recovers by deleting the
// live object and recreating it; anything else is left to the next pass,
// which is the outer retry loop.
func (r *Reconciler) reapply(ctx context.Context, phase *orchestrate.Phase, d descriptor.Descriptor, res *Result) error {
	key := d.Key().String()

	return retry.Do(ctx, func() error {
		return r.client.Apply(ctx, d.Object)
	},
		retry.WithMaxAttempts(2),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithClassifier(kube.Classify),
		retry.WithConflictHandler(func(cause error) error {
			res.Recreated++
			r.recordRecreate(phase.Name)
			r.emit(orchestrate.EventConflictRecovered, phase.Name, key, "conflict: deleting and recreating", cause)
			if derr := r.client.Delete(ctx, d.Object); derr != nil {
				return derr
			}
			return r.client.WaitAbsent(ctx, d.Object, r.recreateWait)
		}),
	)
}

// fail records one descriptor's convergence failure. A shutdown mid-call is
// not a failure; it just ends the sweep.
func (r *Reconciler) fail(ctx context.Context, phase, key string, res *Result, err error) {
	if ctx.Err() != nil {
		return
	}
	res.Failures++
	r.recordFailure(phase)
	r.emit(orchestrate.EventResourceFailed, phase, key, "convergence failed", err)
}

func (r *Reconciler) emit(eventType orchestrate.EventType, phase, subject, message string, err error) {
	if r.notify == nil {
		return
	}
	r.notify(orchestrate.Event{
		Time:    time.Now(),
		Type:    eventType,
		Phase:   phase,
		Subject: subject,
		Message: message,
		Err:     err,
	})
}
