package orchestrate

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a phase's position in its lifecycle for the current run.
type Status string

const (
	// StatusPending means the phase has not started.
	StatusPending Status = "Pending"
	// StatusApplying means resource descriptors are being applied.
	StatusApplying Status = "Applying"
	// StatusWaiting means the readiness gate is polling.
	StatusWaiting Status = "Waiting"
	// StatusSucceeded means the phase completed, gate included.
	StatusSucceeded Status = "Succeeded"
	// StatusFailed means retries were exhausted on a retryable error.
	StatusFailed Status = "Failed"
	// StatusSkipped means a dependency blocked the phase from running.
	StatusSkipped Status = "Skipped"
	// StatusFatal means a non-retryable error or a required check timeout.
	StatusFatal Status = "Fatal"
)

// Terminal reports whether the status is an end state for the run.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped, StatusFatal:
		return true
	}
	return false
}

// ExecutionState is one phase's state within a run. Discarded at run end;
// re-runs recompute everything from live platform inspection.
type ExecutionState struct {
	Phase    string
	Status   Status
	Attempt  int
	Err      error
	Started  time.Time
	Finished time.Time
}

// Tracker holds the execution state of every phase in a run. Safe for
// concurrent use; the TUI reads snapshots while the executor writes.
type Tracker struct {
	mu     sync.Mutex
	runID  string
	order  []string
	states map[string]*ExecutionState
}

// NewTracker creates a tracker with every phase Pending.
func NewTracker(phases []string) *Tracker {
	states := make(map[string]*ExecutionState, len(phases))
	for _, name := range phases {
		states[name] = &ExecutionState{Phase: name, Status: StatusPending}
	}
	return &Tracker{
		runID:  uuid.NewString(),
		order:  append([]string(nil), phases...),
		states: states,
	}
}

// RunID identifies this run in logs and events.
func (t *Tracker) RunID() string {
	return t.runID
}

// Set moves a phase to a new status.
func (t *Tracker) Set(phase string, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transition(phase, status, nil)
}

// SetError moves a phase to a terminal status and records its last error.
func (t *Tracker) SetError(phase string, status Status, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transition(phase, status, err)
}

// IncrementAttempt bumps the phase's attempt counter.
func (t *Tracker) IncrementAttempt(phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[phase]; ok {
		st.Attempt++
	}
}

// Get returns a copy of one phase's state.
func (t *Tracker) Get(phase string) ExecutionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[phase]; ok {
		return *st
	}
	return ExecutionState{Phase: phase}
}

// Snapshot returns a copy of every phase's state, in plan order.
func (t *Tracker) Snapshot() []ExecutionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ExecutionState, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.states[name])
	}
	return out
}

// AnyFatal reports whether any phase reached Fatal. Drives the process exit
// code.
func (t *Tracker) AnyFatal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, st := range t.states {
		if st.Status == StatusFatal {
			return true
		}
	}
	return false
}

// Counts returns how many phases sit in each status.
func (t *Tracker) Counts() map[Status]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Status]int)
	for _, st := range t.states {
		out[st.Status]++
	}
	return out
}

func (t *Tracker) transition(phase string, status Status, err error) {
	st, ok := t.states[phase]
	if !ok {
		return
	}

	now := time.Now()
	if st.Status == StatusPending && status != StatusPending {
		st.Started = now
	}
	if status.Terminal() {
		st.Finished = now
	}

	st.Status = status
	if err != nil {
		st.Err = err
	}
}
