package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds the run-level timing knobs. Each value can be customized
// via an environment variable, so CI and slow clusters tune waits without
// touching the config file.
type Timeouts struct {
	Phase             time.Duration // Bound for one whole phase (apply + readiness)
	Check             time.Duration // Per readiness check, measured from gate start
	CheckPoll         time.Duration // Interval between readiness evaluations
	TeardownGrace     time.Duration // Wait for deletions to finish during cleanup
	SecretSync        time.Duration // Wait for secret material to land in cluster Secrets
	RecreateWait      time.Duration // Wait for deletion during conflict recovery
	RetryMaxAttempts  int           // Per-resource apply attempts
	RetryInitialDelay time.Duration // First backoff delay between attempts
}

// LoadTimeouts loads timeout configuration from environment variables.
// If a variable is not set or invalid, the default value is used.
//
// Environment Variables:
//   - LDP_TIMEOUT_PHASE (default: 15m)
//   - LDP_TIMEOUT_CHECK (default: 5m)
//   - LDP_TIMEOUT_CHECK_POLL (default: 5s)
//   - LDP_TIMEOUT_TEARDOWN_GRACE (default: 30s)
//   - LDP_TIMEOUT_SECRET_SYNC (default: 2m)
//   - LDP_TIMEOUT_RECREATE_WAIT (default: 30s)
//   - LDP_RETRY_MAX_ATTEMPTS (default: 5)
//   - LDP_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Phase:             parseDuration("LDP_TIMEOUT_PHASE", 15*time.Minute),
		Check:             parseDuration("LDP_TIMEOUT_CHECK", 5*time.Minute),
		CheckPoll:         parseDuration("LDP_TIMEOUT_CHECK_POLL", 5*time.Second),
		TeardownGrace:     parseDuration("LDP_TIMEOUT_TEARDOWN_GRACE", 30*time.Second),
		SecretSync:        parseDuration("LDP_TIMEOUT_SECRET_SYNC", 2*time.Minute),
		RecreateWait:      parseDuration("LDP_TIMEOUT_RECREATE_WAIT", 30*time.Second),
		RetryMaxAttempts:  parseInt("LDP_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("LDP_RETRY_INITIAL_DELAY", time.Second),
	}
}

// Scale multiplies every duration by the given factor. Used by the CLI's
// --timeout-scale flag for slow or resource-starved clusters.
func (t *Timeouts) Scale(factor float64) *Timeouts {
	if factor <= 0 {
		return t
	}
	scaled := *t
	scaled.Phase = time.Duration(float64(t.Phase) * factor)
	scaled.Check = time.Duration(float64(t.Check) * factor)
	scaled.TeardownGrace = time.Duration(float64(t.TeardownGrace) * factor)
	scaled.SecretSync = time.Duration(float64(t.SecretSync) * factor)
	scaled.RecreateWait = time.Duration(float64(t.RecreateWait) * factor)
	return &scaled
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
