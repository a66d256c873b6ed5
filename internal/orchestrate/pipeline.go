package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/graph"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
)

// Pipeline drives a full run: a single control loop walks the phase graph in
// topological order, skipping phases whose dependencies did not succeed.
type Pipeline struct {
	plan     Plan
	graph    *graph.Graph
	tracker  *Tracker
	executor *Executor
	client   kube.Client
	notify   Notify
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	notify       Notify
	workers      int
	pollInterval time.Duration
	recreateWait time.Duration
}

// WithPipelineNotify registers the run event observer.
func WithPipelineNotify(fn Notify) PipelineOption {
	return func(c *pipelineConfig) { c.notify = fn }
}

// WithPipelineWorkers bounds per-phase apply concurrency.
func WithPipelineWorkers(n int) PipelineOption {
	return func(c *pipelineConfig) { c.workers = n }
}

// WithPipelinePollInterval sets the readiness gate tick.
func WithPipelinePollInterval(d time.Duration) PipelineOption {
	return func(c *pipelineConfig) { c.pollInterval = d }
}

// WithPipelineRecreateWait bounds conflict recovery's deletion wait.
func WithPipelineRecreateWait(d time.Duration) PipelineOption {
	return func(c *pipelineConfig) { c.recreateWait = d }
}

// NewPipeline validates the plan's dependency graph and prepares a run.
// Invalid plans (cycles, dangling or duplicate phases) fail here, before any
// platform call.
func NewPipeline(client kube.Client, plan Plan, opts ...PipelineOption) (*Pipeline, error) {
	g, err := plan.Graph()
	if err != nil {
		return nil, err
	}

	cfg := &pipelineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	executorOpts := []ExecutorOption{WithExecutorNotify(cfg.notify)}
	if cfg.workers > 0 {
		executorOpts = append(executorOpts, WithWorkers(cfg.workers))
	}
	if cfg.pollInterval > 0 {
		executorOpts = append(executorOpts, WithPollInterval(cfg.pollInterval))
	}
	if cfg.recreateWait > 0 {
		executorOpts = append(executorOpts, WithRecreateWait(cfg.recreateWait))
	}

	return &Pipeline{
		plan:     plan,
		graph:    g,
		tracker:  NewTracker(g.Order()),
		executor: NewExecutor(client, executorOpts...),
		client:   client,
		notify:   cfg.notify,
	}, nil
}

// Tracker exposes the run's execution state for status rendering.
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}

// Graph exposes the validated dependency graph.
func (p *Pipeline) Graph() *graph.Graph {
	return p.graph
}

// Deploy executes every phase in dependency order. Failures block their
// transitive dependents but independent phases still run, so partial platform
// state stays as useful as possible for diagnosis. Cancellation stops the
// loop after the current phase observes it.
func (p *Pipeline) Deploy(ctx context.Context) (*Summary, error) {
	for _, name := range p.graph.Order() {
		if ctx.Err() != nil {
			return p.summary(), ctx.Err()
		}

		phase := p.plan.Find(name)
		if blocker := p.blockedBy(phase); blocker != "" {
			err := fmt.Errorf("dependency %s did not succeed", blocker)
			p.tracker.SetError(name, StatusSkipped, err)
			emit(p.notify, EventPhaseSkipped, name, blocker, "skipped", err)
			continue
		}

		p.executor.Execute(ctx, phase, p.tracker)
	}

	s := p.summary()
	emit(p.notify, EventRunCompleted, "", "", s.String(), nil)
	return s, nil
}

// blockedBy returns the first dependency that prevents the phase from
// running. Optional dependencies never block, whatever their outcome.
func (p *Pipeline) blockedBy(phase *Phase) string {
	for _, dep := range phase.DependsOn {
		if p.tracker.Get(dep).Status == StatusSucceeded {
			continue
		}
		if depPhase := p.plan.Find(dep); depPhase != nil && depPhase.Optional {
			continue
		}
		return dep
	}
	return ""
}

func (p *Pipeline) summary() *Summary {
	states := p.tracker.Snapshot()

	success := true
	fatal := false
	for _, st := range states {
		if st.Status == StatusFatal {
			fatal = true
		}
		if st.Status != StatusSucceeded {
			if phase := p.plan.Find(st.Phase); phase == nil || !phase.Optional {
				success = false
			}
		}
	}

	return &Summary{
		RunID:   p.tracker.RunID(),
		States:  states,
		Counts:  p.tracker.Counts(),
		Success: success,
		Fatal:   fatal,
	}
}

// Summary is the final accounting of a run.
type Summary struct {
	RunID string
	// States holds every phase's terminal state in plan order.
	States []ExecutionState
	Counts map[Status]int
	// Success means every non-optional phase succeeded.
	Success bool
	// Fatal means at least one phase reached Fatal.
	Fatal bool
}

// String renders the summary counts, e.g. "10 succeeded, 1 fatal, 1 skipped".
func (s *Summary) String() string {
	order := []Status{StatusSucceeded, StatusFailed, StatusFatal, StatusSkipped, StatusPending}
	parts := make([]string, 0, len(order))
	for _, status := range order {
		if n := s.Counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(status))))
		}
	}
	if len(parts) == 0 {
		return "no phases"
	}
	return strings.Join(parts, ", ")
}

// ExitCode maps the run outcome to the process exit code: 0 when every
// non-optional phase succeeded and nothing went fatal, 1 otherwise.
func (s *Summary) ExitCode() int {
	if s.Fatal || !s.Success {
		return 1
	}
	return 0
}
