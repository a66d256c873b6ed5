package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
)

// DefaultTeardownGrace bounds how long teardown lingers on foreground phases
// before falling back to fire-and-forget deletion.
const DefaultTeardownGrace = 30 * time.Second

// Teardown removes deployed resources in reverse dependency order so
// dependents disappear before the services they rely on. Absent resources are
// tolerated, and an error on one resource never stops the sweep: every
// deletion is attempted and the errors are reported together at the end.
type Teardown struct {
	client kube.Client
	plan   Plan
	grace  time.Duration
	notify Notify
}

// TeardownOption configures a Teardown.
type TeardownOption func(*Teardown)

// WithTeardownGrace sets the per-phase wait before moving on. Zero disables
// waiting entirely.
func WithTeardownGrace(d time.Duration) TeardownOption {
	return func(t *Teardown) { t.grace = d }
}

// WithTeardownNotify registers the event observer.
func WithTeardownNotify(fn Notify) TeardownOption {
	return func(t *Teardown) { t.notify = fn }
}

// NewTeardown validates the plan graph and prepares a sweep.
func NewTeardown(client kube.Client, plan Plan, opts ...TeardownOption) (*Teardown, error) {
	if _, err := plan.Graph(); err != nil {
		return nil, err
	}
	t := &Teardown{
		client: client,
		plan:   plan,
		grace:  DefaultTeardownGrace,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Run deletes every phase's resources, newest phases first. Within a phase,
// resources go in reverse registration order. Deletion requests are
// fire-and-forget: after issuing a phase's deletes, Run waits at most the
// grace period for the objects to vanish, then moves on and lets the cluster
// finish asynchronously.
func (t *Teardown) Run(ctx context.Context) error {
	g, err := t.plan.Graph()
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range g.Reverse() {
		phase := t.plan.Find(name)
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := t.teardownPhase(ctx, phase); err != nil {
			errs = append(errs, fmt.Errorf("phase %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Teardown) teardownPhase(ctx context.Context, phase *Phase) error {
	descriptors := phase.Resources.List()

	var errs []error
	for i := len(descriptors) - 1; i >= 0; i-- {
		d := descriptors[i]
		key := d.Key().String()
		if err := t.client.Delete(ctx, d.Object); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			emit(t.notify, EventResourceFailed, phase.Name, key, "delete failed", err)
			continue
		}
		emit(t.notify, EventResourceDeleted, phase.Name, key, "deletion requested", nil)
	}

	if t.grace > 0 {
		t.awaitPhaseGone(ctx, phase, descriptors)
	}
	return errors.Join(errs...)
}

// awaitPhaseGone gives the cluster a short window to finish deletions before
// the sweep moves to the phase's dependencies. Lingering objects are not an
// error: finalizers may hold them long past any reasonable wait.
func (t *Teardown) awaitPhaseGone(ctx context.Context, phase *Phase, descriptors []descriptor.Descriptor) {
	deadline := time.Now().Add(t.grace)
	for i := len(descriptors) - 1; i >= 0; i-- {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			return
		}
		d := descriptors[i]
		if err := t.client.WaitAbsent(ctx, d.Object, remaining); err != nil {
			emit(t.notify, EventResourceDeleted, phase.Name, d.Key().String(),
				"still terminating, continuing", nil)
			return
		}
	}
}
