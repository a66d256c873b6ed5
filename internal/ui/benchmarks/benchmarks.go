// Package benchmarks provides timing estimates for platform rollout phases.
package benchmarks

import (
	"time"

	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
)

// DefaultTimings are median phase durations from dev-cluster rollouts
// (seconds). Chart-backed phases dominate; the workflow orchestrator pulls
// several images and runs migrations, hence its weight.
var DefaultTimings = map[string]int{
	"namespaces":            5,
	"secrets-engine":        90,
	"secrets-bootstrap":     45,
	"object-store":          60,
	"metastore-db":          90,
	"hive-metastore":        60,
	"gitops":                90,
	"gitops-apps":           45,
	"query-gateway":         60,
	"workflow-orchestrator": 180,
	"ingress":               15,
	"observability":         120,
}

// fallbackSeconds is assumed for phases without a benchmark entry, which is
// every phase of a custom plan. Guessed phases never feed the scale factor.
const fallbackSeconds = 60

// PhaseExpectedDuration returns the benchmark duration for a phase.
func PhaseExpectedDuration(phase string) (time.Duration, bool) {
	secs, ok := DefaultTimings[phase]
	if !ok {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// PerformanceScale derives a speed multiplier from observed-vs-expected
// durations of finished phases. Example: expected 3m, observed 4m30s =>
// scale=1.5 (future ETAs are stretched by 50%). Only phases with a benchmark
// entry participate.
func PerformanceScale(states []orchestrate.ExecutionState, now time.Time) float64 {
	var expectedTotal time.Duration
	var actualTotal time.Duration

	for _, st := range states {
		expected, ok := PhaseExpectedDuration(st.Phase)
		if !ok || st.Started.IsZero() {
			continue
		}

		switch {
		case st.Status == orchestrate.StatusSucceeded && !st.Finished.IsZero():
			expectedTotal += expected
			actualTotal += st.Finished.Sub(st.Started)
		case st.Status == orchestrate.StatusApplying || st.Status == orchestrate.StatusWaiting:
			// An overrunning phase folds in immediately so the ETA adapts
			// before it finishes.
			if elapsed := now.Sub(st.Started); elapsed > expected {
				expectedTotal += expected
				actualTotal += elapsed
			}
		}
	}

	if expectedTotal == 0 || actualTotal == 0 {
		return 1.0
	}

	scale := float64(actualTotal) / float64(expectedTotal)
	if scale < 0.6 {
		return 0.6
	}
	if scale > 3.0 {
		return 3.0
	}
	return scale
}

// EstimateRemainingWithScale calculates the run's remaining time: active
// phases contribute what is left of their scaled estimate, pending phases
// their full scaled estimate. Terminal phases, skipped included, contribute
// nothing.
func EstimateRemainingWithScale(states []orchestrate.ExecutionState, now time.Time, scale float64) time.Duration {
	var remaining time.Duration

	for _, st := range states {
		expected, ok := PhaseExpectedDuration(st.Phase)
		if !ok {
			expected = fallbackSeconds * time.Second
		}
		expected = time.Duration(float64(expected) * scale)

		switch st.Status {
		case orchestrate.StatusPending:
			remaining += expected
		case orchestrate.StatusApplying, orchestrate.StatusWaiting:
			if st.Started.IsZero() {
				remaining += expected
				continue
			}
			if left := expected - now.Sub(st.Started); left > 0 {
				remaining += left
			}
		}
	}

	return remaining
}
