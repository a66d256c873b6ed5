// Package retry provides bounded retry with exponential backoff and
// error classification. Every platform call in the orchestrator is routed
// through Do so transient failures, recoverable conflicts, and fatal
// errors are handled uniformly.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Class partitions operation errors by how the retry loop responds.
type Class int

const (
	// ClassTransient errors are retried with exponential backoff.
	ClassTransient Class = iota
	// ClassConflict errors invoke the conflict handler, then re-attempt.
	ClassConflict
	// ClassFatal errors stop the loop immediately.
	ClassFatal
)

// String returns the lower-case class name used in logs and events.
func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassConflict:
		return "conflict"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Policy bounds a retry loop. A zero Policy is replaced by DefaultPolicy.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultPolicy returns the standard bounds: 5 attempts, 1s initial delay,
// 30s cap, doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// IsZero reports whether the policy is entirely unset.
func (p Policy) IsZero() bool {
	return p.MaxAttempts == 0 && p.InitialDelay == 0 && p.MaxDelay == 0 && p.Multiplier == 0
}

// OrDefault fills unset fields from DefaultPolicy.
func (p Policy) OrDefault() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}

// Classifier maps an operation error to a Class.
type Classifier func(error) Class

// ConflictHandler runs recovery (delete, wait for absence) before the
// loop re-attempts a conflicting operation. A non-nil return aborts.
type ConflictHandler func(err error) error

// Notify observes each failed attempt.
type Notify func(attempt int, class Class, err error)

type config struct {
	policy     Policy
	classify   Classifier
	onConflict ConflictHandler
	notify     Notify
}

// Option is a functional option for Do.
type Option func(*config)

// WithPolicy sets all loop bounds at once.
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p.OrDefault()
	}
}

// WithMaxAttempts sets the total attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		c.policy.MaxAttempts = n
	}
}

// WithInitialDelay sets the first backoff delay.
func WithInitialDelay(d time.Duration) Option {
	return func(c *config) {
		c.policy.InitialDelay = d
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.policy.MaxDelay = d
	}
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(c *config) {
		c.policy.Multiplier = m
	}
}

// WithClassifier sets the error classifier. The default treats errors
// wrapped by Fatal as ClassFatal and everything else as ClassTransient.
func WithClassifier(f Classifier) Option {
	return func(c *config) {
		c.classify = f
	}
}

// WithConflictHandler sets the recovery hook for ClassConflict errors.
// Without a handler a conflict stops the loop.
func WithConflictHandler(f ConflictHandler) Option {
	return func(c *config) {
		c.onConflict = f
	}
}

// WithNotify registers an observer called on every failed attempt.
func WithNotify(f Notify) Option {
	return func(c *config) {
		c.notify = f
	}
}

// Do executes the operation until it succeeds, the attempt budget is
// spent, a fatal error occurs, or the context is cancelled. Transient
// errors back off exponentially; conflict errors run the conflict handler
// and re-attempt immediately, each recovery consuming one attempt so a
// flapping resource cannot loop forever.
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &config{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.classify == nil {
		cfg.classify = DefaultClassifier
	}

	delay := cfg.policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.policy.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		class := cfg.classify(err)
		if cfg.notify != nil {
			cfg.notify(attempt, class, err)
		}

		switch class {
		case ClassFatal:
			if !IsFatal(err) {
				err = Fatal(err)
			}
			return fmt.Errorf("fatal error (not retrying): %w", err)

		case ClassConflict:
			if cfg.onConflict == nil {
				return fmt.Errorf("conflict without recovery handler: %w", err)
			}
			if rerr := cfg.onConflict(err); rerr != nil {
				return fmt.Errorf("conflict recovery failed: %w", rerr)
			}

		case ClassTransient:
			if attempt == cfg.policy.MaxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * cfg.policy.Multiplier)
				if delay > cfg.policy.MaxDelay {
					delay = cfg.policy.MaxDelay
				}
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.policy.MaxAttempts, lastErr)
}

// DefaultClassifier treats Fatal-wrapped errors as fatal and everything
// else as transient.
func DefaultClassifier(err error) Class {
	if IsFatal(err) {
		return ClassFatal
	}
	return ClassTransient
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
