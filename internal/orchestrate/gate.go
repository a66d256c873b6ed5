package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// GateResult is the outcome of waiting on a phase's readiness checks.
type GateResult string

const (
	// GateReady means every required check was satisfied.
	GateReady GateResult = "Ready"
	// GateTimedOut means a required check did not become satisfied in time.
	GateTimedOut GateResult = "TimedOut"
	// GateSkipped means the phase declared no checks.
	GateSkipped GateResult = "Skipped"
)

const (
	// DefaultPollInterval is how often the gate re-evaluates its checks.
	DefaultPollInterval = 5 * time.Second
	// DefaultCheckTimeout bounds checks that do not declare their own.
	DefaultCheckTimeout = 5 * time.Minute
)

// Gate polls readiness checks until all required ones are satisfied. It is
// the run's suspension point: everything downstream of a phase blocks here.
type Gate struct {
	client   kube.Client
	interval time.Duration
	notify   Notify
}

// NewGate creates a gate polling at the given interval (DefaultPollInterval
// when zero).
func NewGate(client kube.Client, interval time.Duration, notify Notify) *Gate {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Gate{client: client, interval: interval, notify: notify}
}

// Wait polls every check independently until all required checks are
// satisfied. Optional checks that exhaust their timeout degrade to a warning.
// Cancellation is observed within one tick; the returned error is then the
// context's.
func (g *Gate) Wait(ctx context.Context, phase string, checks []ReadinessCheck) (GateResult, error) {
	if len(checks) == 0 {
		return GateSkipped, nil
	}

	start := time.Now()
	satisfied := make([]bool, len(checks))
	degraded := make([]bool, len(checks))
	lastDetail := make([]string, len(checks))

	for {
		done := 0
		for i, check := range checks {
			if satisfied[i] || degraded[i] {
				done++
				continue
			}

			ok, detail, err := evaluateCheck(ctx, g.client, check)
			if err != nil {
				if retry.IsFatal(err) {
					return GateTimedOut, err
				}
				detail = err.Error()
			}
			lastDetail[i] = detail

			if ok {
				satisfied[i] = true
				done++
				emit(g.notify, EventCheckSatisfied, phase, check.DisplayName(), detail, nil)
				continue
			}

			timeout := check.Timeout
			if timeout <= 0 {
				timeout = DefaultCheckTimeout
			}
			if time.Since(start) < timeout {
				continue
			}

			timeoutErr := fmt.Errorf("check %s not satisfied after %s: %s", check.DisplayName(), timeout, detail)
			if check.Required {
				emit(g.notify, EventCheckTimedOut, phase, check.DisplayName(), detail, timeoutErr)
				return GateTimedOut, timeoutErr
			}

			degraded[i] = true
			done++
			emit(g.notify, EventCheckTimedOut, phase, check.DisplayName(), "optional check degraded to warning: "+detail, nil)
		}

		if done == len(checks) {
			return GateReady, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.interval):
		}
	}
}

// evaluateCheck runs one check against live state. An unknown target is a
// configuration error and is marked fatal.
func evaluateCheck(ctx context.Context, client kube.Client, check ReadinessCheck) (bool, string, error) {
	switch check.Target {
	case TargetDeployment:
		return client.DeploymentAvailable(ctx, check.Namespace, check.Ref)
	case TargetStatefulSet:
		return client.StatefulSetReady(ctx, check.Namespace, check.Ref)
	case TargetPods:
		return client.PodsReady(ctx, check.Namespace, check.Ref)
	case TargetEndpoints:
		return client.EndpointsReady(ctx, check.Namespace, check.Ref)
	case TargetCRD:
		return client.CRDEstablished(ctx, check.Ref)
	case TargetSecret:
		return client.SecretMaterialized(ctx, check.Namespace, check.Ref)
	case TargetApplication:
		return client.ApplicationSynced(ctx, check.Namespace, check.Ref)
	default:
		return false, "", retry.Fatal(fmt.Errorf("unknown check target %q", check.Target))
	}
}
