package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDo_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	ctx := context.Background()
	err := Do(ctx, operation)

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	ctx := context.Background()
	err := Do(ctx, operation, WithInitialDelay(10*time.Millisecond))

	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestDo_AttemptBudget(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("persistent error")
	}

	ctx := context.Background()
	err := Do(ctx, operation,
		WithMaxAttempts(3),
		WithInitialDelay(10*time.Millisecond))

	if err == nil {
		t.Error("Expected error after budget spent, got nil")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, operation, WithInitialDelay(10*time.Millisecond))

	if err == nil {
		t.Error("Expected error due to context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before context check, got: %d", attempts)
	}
}

func TestDo_ContextTimeout(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Do(ctx, operation,
		WithInitialDelay(100*time.Millisecond),
		WithMaxAttempts(10))

	if err == nil {
		t.Error("Expected error due to context timeout, got nil")
	}
	if attempts > 2 {
		t.Errorf("Expected at most 2 attempts before timeout, got: %d", attempts)
	}
}

func TestDo_FatalError(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return Fatal(errors.New("fatal error"))
	}

	ctx := context.Background()
	err := Do(ctx, operation, WithInitialDelay(10*time.Millisecond))

	if err == nil {
		t.Error("Expected fatal error, got nil")
	}
	if !IsFatal(err) {
		t.Errorf("Expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retries for fatal error), got: %d", attempts)
	}
}

func TestDo_Classifier(t *testing.T) {
	t.Parallel()
	errDenied := errors.New("authorization denied")
	classify := func(err error) Class {
		if errors.Is(err, errDenied) {
			return ClassFatal
		}
		return ClassTransient
	}

	t.Run("Fatal class stops immediately", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		operation := func() error {
			attempts++
			return errDenied
		}

		err := Do(context.Background(), operation,
			WithClassifier(classify),
			WithInitialDelay(10*time.Millisecond))

		if err == nil {
			t.Error("Expected error, got nil")
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got: %d", attempts)
		}
	})

	t.Run("Transient class retries", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		operation := func() error {
			attempts++
			if attempts < 2 {
				return errors.New("connection reset")
			}
			return nil
		}

		err := Do(context.Background(), operation,
			WithClassifier(classify),
			WithInitialDelay(10*time.Millisecond))

		if err != nil {
			t.Errorf("Expected success after retry, got: %v", err)
		}
		if attempts != 2 {
			t.Errorf("Expected 2 attempts, got: %d", attempts)
		}
	})
}

func TestDo_ConflictHandler(t *testing.T) {
	t.Parallel()
	errConflict := errors.New("field is immutable")
	classify := func(err error) Class {
		if errors.Is(err, errConflict) {
			return ClassConflict
		}
		return ClassTransient
	}

	t.Run("Handler runs once then re-attempt succeeds", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		recoveries := 0
		operation := func() error {
			attempts++
			if attempts == 1 {
				return errConflict
			}
			return nil
		}

		err := Do(context.Background(), operation,
			WithClassifier(classify),
			WithConflictHandler(func(error) error {
				recoveries++
				return nil
			}),
			WithInitialDelay(10*time.Millisecond))

		if err != nil {
			t.Errorf("Expected success after recovery, got: %v", err)
		}
		if recoveries != 1 {
			t.Errorf("Expected exactly 1 recovery, got: %d", recoveries)
		}
		if attempts != 2 {
			t.Errorf("Expected 2 attempts, got: %d", attempts)
		}
	})

	t.Run("Recovery consumes attempts", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		recoveries := 0
		operation := func() error {
			attempts++
			return errConflict
		}

		err := Do(context.Background(), operation,
			WithClassifier(classify),
			WithConflictHandler(func(error) error {
				recoveries++
				return nil
			}),
			WithMaxAttempts(3))

		if err == nil {
			t.Error("Expected error after budget spent, got nil")
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got: %d", attempts)
		}
		if recoveries != 3 {
			t.Errorf("Expected 3 recoveries, got: %d", recoveries)
		}
	})

	t.Run("Handler error aborts", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		operation := func() error {
			attempts++
			return errConflict
		}

		err := Do(context.Background(), operation,
			WithClassifier(classify),
			WithConflictHandler(func(error) error {
				return errors.New("delete failed")
			}))

		if err == nil {
			t.Error("Expected error from failed recovery, got nil")
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got: %d", attempts)
		}
	})

	t.Run("Conflict without handler stops", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		operation := func() error {
			attempts++
			return errConflict
		}

		err := Do(context.Background(), operation, WithClassifier(classify))

		if err == nil {
			t.Error("Expected error, got nil")
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got: %d", attempts)
		}
	})
}

func TestDo_Notify(t *testing.T) {
	t.Parallel()
	var observed []Class
	operation := func() error {
		return errors.New("error")
	}

	_ = Do(context.Background(), operation,
		WithMaxAttempts(3),
		WithInitialDelay(10*time.Millisecond),
		WithNotify(func(attempt int, class Class, err error) {
			observed = append(observed, class)
		}))

	if len(observed) != 3 {
		t.Errorf("Expected 3 notifications, got: %d", len(observed))
	}
	for i, class := range observed {
		if class != ClassTransient {
			t.Errorf("Notification %d: expected ClassTransient, got %v", i, class)
		}
	}
}

func TestDo_BackoffTiming(t *testing.T) {
	t.Parallel()
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	operation := func() error {
		attempts++
		now := time.Now()
		if attempts > 1 {
			delays = append(delays, now.Sub(lastTime))
		}
		lastTime = now
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}

	ctx := context.Background()
	err := Do(ctx, operation,
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(200*time.Millisecond))

	if err != nil {
		t.Errorf("Expected success after retries, got: %v", err)
	}

	if len(delays) != 3 {
		t.Errorf("Expected 3 delays, got: %d", len(delays))
	}

	// 20ms tolerance for scheduler jitter
	tolerance := 20 * time.Millisecond
	expectedDelays := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
	}

	for i, delay := range delays {
		expected := expectedDelays[i]
		if delay < expected-tolerance || delay > expected+tolerance {
			t.Errorf("Delay %d: expected ~%v, got %v", i+1, expected, delay)
		}
	}
}

func TestPolicy_OrDefault(t *testing.T) {
	t.Parallel()

	t.Run("Zero policy gets defaults", func(t *testing.T) {
		t.Parallel()
		p := Policy{}.OrDefault()
		def := DefaultPolicy()
		if p != def {
			t.Errorf("Expected %+v, got %+v", def, p)
		}
	})

	t.Run("Set fields survive", func(t *testing.T) {
		t.Parallel()
		p := Policy{MaxAttempts: 2, InitialDelay: 5 * time.Second}.OrDefault()
		if p.MaxAttempts != 2 {
			t.Errorf("Expected MaxAttempts 2, got %d", p.MaxAttempts)
		}
		if p.InitialDelay != 5*time.Second {
			t.Errorf("Expected InitialDelay 5s, got %v", p.InitialDelay)
		}
		if p.MaxDelay != DefaultPolicy().MaxDelay {
			t.Errorf("Expected default MaxDelay, got %v", p.MaxDelay)
		}
	})
}

func TestClass_String(t *testing.T) {
	t.Parallel()
	cases := []struct {
		class Class
		want  string
	}{
		{ClassTransient, "transient"},
		{ClassConflict, "conflict"},
		{ClassFatal, "fatal"},
		{Class(42), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.class.String(); got != tc.want {
			t.Errorf("Class(%d).String() = %q, want %q", tc.class, got, tc.want)
		}
	}
}

func TestFatal(t *testing.T) {
	t.Parallel()
	t.Run("Nil error", func(t *testing.T) {
		t.Parallel()
		err := Fatal(nil)
		if err != nil {
			t.Errorf("Expected nil, got: %v", err)
		}
	})

	t.Run("Non-nil error", func(t *testing.T) {
		t.Parallel()
		originalErr := errors.New("test error")
		err := Fatal(originalErr)

		if err == nil {
			t.Error("Expected non-nil error")
		}
		if !IsFatal(err) {
			t.Error("Expected error to be fatal")
		}
		if err.Error() != originalErr.Error() {
			t.Errorf("Expected error message %q, got %q", originalErr.Error(), err.Error())
		}
	})
}

func TestIsFatal(t *testing.T) {
	t.Parallel()
	t.Run("Non-fatal error", func(t *testing.T) {
		t.Parallel()
		err := errors.New("regular error")
		if IsFatal(err) {
			t.Error("Expected non-fatal error")
		}
	})

	t.Run("Fatal error", func(t *testing.T) {
		t.Parallel()
		err := Fatal(errors.New("fatal error"))
		if !IsFatal(err) {
			t.Error("Expected fatal error")
		}
	})

	t.Run("Wrapped fatal error", func(t *testing.T) {
		t.Parallel()
		err := Fatal(errors.New("base error"))
		wrapped := fmt.Errorf("context: %w", err)
		if !IsFatal(wrapped) {
			t.Error("Expected wrapped fatal error to be detected")
		}
	})
}
