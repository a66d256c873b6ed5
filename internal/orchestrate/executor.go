package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/descriptor"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/util/async"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// DefaultRecreateWait bounds how long conflict recovery waits for a deleted
// object to disappear before recreating it.
const DefaultRecreateWait = 15 * time.Second

// Executor applies one phase: pre-apply hook, concurrent resource applies
// with retry and conflict recovery, the readiness gate, post-ready hook.
type Executor struct {
	client       kube.Client
	gate         *Gate
	workers      int
	recreateWait time.Duration
	pollInterval time.Duration
	notify       Notify
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkers bounds how many resources of one phase apply concurrently.
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) { e.workers = n }
}

// WithRecreateWait bounds the wait for deletion during conflict recovery.
func WithRecreateWait(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.recreateWait = d }
}

// WithPollInterval sets the readiness gate's polling interval.
func WithPollInterval(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.pollInterval = d }
}

// WithExecutorNotify registers the run event observer.
func WithExecutorNotify(fn Notify) ExecutorOption {
	return func(e *Executor) { e.notify = fn }
}

// NewExecutor creates an executor over the platform client.
func NewExecutor(client kube.Client, opts ...ExecutorOption) *Executor {
	e := &Executor{
		client:       client,
		workers:      async.DefaultWorkers,
		recreateWait: DefaultRecreateWait,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gate = NewGate(e.client, e.pollInterval, e.notify)
	return e
}

// Execute runs one phase to a terminal state and records it in the tracker.
// Resource failures are collected rather than aborting the phase mid-apply,
// so one bad manifest does not hide the state of its siblings.
func (e *Executor) Execute(ctx context.Context, phase *Phase, tracker *Tracker) ExecutionState {
	parent := ctx
	if phase.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, phase.Timeout)
		defer cancel()
	}

	tracker.Set(phase.Name, StatusApplying)
	emit(e.notify, EventPhaseStarted, phase.Name, "", fmt.Sprintf("%d resources, %d checks", phase.ResourceCount(), len(phase.Checks)), nil)

	if phase.PreApply != nil {
		if err := phase.PreApply(ctx); err != nil {
			return e.finishFailure(parent, ctx, phase, tracker, fmt.Errorf("pre-apply hook: %w", err))
		}
	}

	if errs := e.applyResources(ctx, phase, tracker); len(errs) > 0 {
		return e.finishFailure(parent, ctx, phase, tracker, errors.Join(errs...))
	}

	if len(phase.Checks) > 0 {
		tracker.Set(phase.Name, StatusWaiting)
		emit(e.notify, EventGateWaiting, phase.Name, "", fmt.Sprintf("waiting on %d checks", len(phase.Checks)), nil)
	}

	result, gateErr := e.gate.Wait(ctx, phase.Name, phase.Checks)
	switch {
	case gateErr != nil && result == GateTimedOut:
		// A required check that never satisfies is fatal to the phase.
		return e.finishFailure(parent, ctx, phase, tracker, retry.Fatal(gateErr))
	case gateErr != nil:
		return e.finishFailure(parent, ctx, phase, tracker, gateErr)
	}

	if phase.PostReady != nil {
		if err := phase.PostReady(ctx); err != nil {
			return e.finishFailure(parent, ctx, phase, tracker, fmt.Errorf("post-ready hook: %w", err))
		}
	}

	tracker.Set(phase.Name, StatusSucceeded)
	emit(e.notify, EventPhaseSucceeded, phase.Name, "", string(result), nil)
	return tracker.Get(phase.Name)
}

// applyResources applies every descriptor through the retry controller with
// a bounded worker pool, collecting all failures.
func (e *Executor) applyResources(ctx context.Context, phase *Phase, tracker *Tracker) []error {
	if phase.ResourceCount() == 0 {
		return nil
	}

	list := phase.Resources.List()
	tasks := make([]async.Task, len(list))
	for i, d := range list {
		d := d
		tasks[i] = async.Task{
			Name: d.Key().String(),
			Func: func(taskCtx context.Context) error {
				return e.applyOne(taskCtx, phase, tracker, d)
			},
		}
	}

	var errs []error
	for _, result := range async.RunBounded(ctx, e.workers, tasks) {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	return errs
}

// applyOne issues one create-or-update, recovering from conflicts by
// deleting the live object, waiting for it to vanish, and letting the retry
// loop recreate it. Each recovery consumes an attempt, so the phase's retry
// policy bounds the delete/recreate cycle too.
func (e *Executor) applyOne(ctx context.Context, phase *Phase, tracker *Tracker, d descriptor.Descriptor) error {
	obj := d.Object
	key := d.Key().String()

	err := retry.Do(ctx, func() error {
		return e.client.Apply(ctx, obj)
	},
		retry.WithPolicy(phase.Retry.OrDefault()),
		retry.WithClassifier(kube.Classify),
		retry.WithConflictHandler(func(cause error) error {
			emit(e.notify, EventConflictRecovered, phase.Name, key, "conflict: deleting and recreating", cause)
			if derr := e.client.Delete(ctx, obj); derr != nil {
				return derr
			}
			return e.client.WaitAbsent(ctx, obj, e.recreateWait)
		}),
		retry.WithNotify(func(attempt int, class retry.Class, cause error) {
			tracker.IncrementAttempt(phase.Name)
			emit(e.notify, EventResourceFailed, phase.Name, key, fmt.Sprintf("attempt %d (%s)", attempt, class), cause)
		}),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	emit(e.notify, EventResourceApplied, phase.Name, key, "applied", nil)
	return nil
}

// finishFailure records the phase's terminal failure state. Fatal-marked
// errors and phase timeouts produce Fatal; everything else is Failed.
func (e *Executor) finishFailure(parent, phaseCtx context.Context, phase *Phase, tracker *Tracker, err error) ExecutionState {
	status := StatusFailed
	if retry.IsFatal(err) {
		status = StatusFatal
	}
	if phase.Timeout > 0 && errors.Is(phaseCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		status = StatusFatal
		err = fmt.Errorf("phase timed out after %s: %w", phase.Timeout, err)
	}

	tracker.SetError(phase.Name, status, err)
	if status == StatusFatal {
		emit(e.notify, EventPhaseFatal, phase.Name, "", "", err)
	} else {
		emit(e.notify, EventPhaseFailed, phase.Name, "", "", err)
	}
	return tracker.Get(phase.Name)
}
