package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	passesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldp",
			Subsystem: "reconciler",
			Name:      "passes_total",
			Help:      "Total number of convergence passes by outcome",
		},
		[]string{"outcome"},
	)

	passDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ldp",
			Subsystem: "reconciler",
			Name:      "pass_duration_seconds",
			Help:      "Duration of convergence passes in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	repairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldp",
			Subsystem: "reconciler",
			Name:      "repairs_total",
			Help:      "Total number of resources reapplied by phase and reason",
		},
		[]string{"phase", "reason"},
	)

	recreatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldp",
			Subsystem: "reconciler",
			Name:      "conflict_recreates_total",
			Help:      "Total number of conflict recoveries (delete and recreate) by phase",
		},
		[]string{"phase"},
	)

	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ldp",
			Subsystem: "reconciler",
			Name:      "resource_failures_total",
			Help:      "Total number of resources that failed to converge by phase",
		},
		[]string{"phase"},
	)

	lastPassTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ldp",
			Subsystem: "reconciler",
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time of the last completed convergence pass",
		},
	)
)

func init() {
	// Register metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		passesTotal,
		passDuration,
		repairsTotal,
		recreatesTotal,
		failuresTotal,
		lastPassTimestamp,
	)
}

// recordPassMetric records a completed convergence pass.
func recordPassMetric(outcome string, duration float64) {
	passesTotal.WithLabelValues(outcome).Inc()
	passDuration.Observe(duration)
	lastPassTimestamp.SetToCurrentTime()
}

// recordRepairMetric records one reapplied resource.
func recordRepairMetric(phase, reason string) {
	repairsTotal.WithLabelValues(phase, reason).Inc()
}

// recordRecreateMetric records one conflict recovery.
func recordRecreateMetric(phase string) {
	recreatesTotal.WithLabelValues(phase).Inc()
}

// recordFailureMetric records one resource that failed to converge.
func recordFailureMetric(phase string) {
	failuresTotal.WithLabelValues(phase).Inc()
}

// Metrics helper methods that check enableMetrics before recording.
// These eliminate the repeated `if r.enableMetrics` pattern at call sites.

func (r *Reconciler) recordPass(outcome string, duration float64) {
	if r.enableMetrics {
		recordPassMetric(outcome, duration)
	}
}

func (r *Reconciler) recordRepair(phase, reason string) {
	if r.enableMetrics {
		recordRepairMetric(phase, reason)
	}
}

func (r *Reconciler) recordRecreate(phase string) {
	if r.enableMetrics {
		recordRecreateMetric(phase)
	}
}

func (r *Reconciler) recordFailure(phase string) {
	if r.enableMetrics {
		recordFailureMetric(phase)
	}
}
