// Package preflight verifies the environment before any platform call is
// made: required credentials present, endpoints reachable. A failed
// required check is a configuration error, not a runtime failure.
package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ProbeFunc performs one check. The detail string is shown to the user
// on success (a path, an endpoint, a masked credential hint).
type ProbeFunc func(ctx context.Context) (detail string, err error)

// Check represents one environment requirement.
type Check struct {
	// Name identifies the check in output.
	Name string

	// Required indicates whether failure blocks execution.
	Required bool

	// Description explains what the requirement is for.
	Description string

	// Probe performs the check.
	Probe ProbeFunc
}

// CheckResult contains the result of running a single check.
type CheckResult struct {
	Check  Check
	OK     bool
	Detail string
	Err    error
}

// CheckResults contains the results of running multiple checks.
type CheckResults struct {
	Results []CheckResult
	Failed  []CheckResult
}

// HasErrors returns true if any required check failed.
func (r *CheckResults) HasErrors() bool {
	for _, res := range r.Failed {
		if res.Check.Required {
			return true
		}
	}
	return false
}

// Error returns an error naming every failed required check.
func (r *CheckResults) Error() error {
	var failed []string
	for _, res := range r.Failed {
		if res.Check.Required {
			failed = append(failed, fmt.Sprintf("%s (%v)", res.Check.Name, res.Err))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(failed, "; "))
}

// Run executes the checks in order. Probes receive the caller's context
// so connectivity checks honor cancellation.
func Run(ctx context.Context, checks []Check) *CheckResults {
	results := &CheckResults{}

	for _, check := range checks {
		result := CheckResult{Check: check}

		detail, err := check.Probe(ctx)
		if err == nil {
			result.OK = true
			result.Detail = detail
		} else {
			result.Err = err
			results.Failed = append(results.Failed, result)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// Env returns a probe that requires a non-empty environment variable.
// The value itself is never reported, only its presence.
func Env(key string) ProbeFunc {
	return func(context.Context) (string, error) {
		if os.Getenv(key) == "" {
			return "", fmt.Errorf("environment variable %s is not set", key)
		}
		return "set", nil
	}
}

// File returns a probe that requires a readable file at path.
func File(path string) ProbeFunc {
	return func(context.Context) (string, error) {
		if path == "" {
			return "", fmt.Errorf("path is empty")
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("not readable: %w", err)
		}
		return path, nil
	}
}
