package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// transientError is retried by the isTransient check below
type transientError struct {
	message   string
	transient bool
}

func (e transientError) Error() string { return e.message }

func isTransient(err error) bool {
	var t transientError
	return errors.As(err, &t) && t.transient
}

func TestBackoff(t *testing.T) {
	cfg := Backoff(5, 100*time.Millisecond, time.Second, 2)

	if cfg.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected 100ms initial delay, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != time.Second {
		t.Errorf("expected 1s max delay, got %v", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2 {
		t.Errorf("expected multiplier 2, got %v", cfg.Multiplier)
	}

	// a cap below the initial delay is raised to it
	if cfg := Backoff(3, time.Second, time.Millisecond, 2); cfg.MaxDelay != time.Second {
		t.Errorf("expected max delay raised to 1s, got %v", cfg.MaxDelay)
	}
}

func TestBackoffDelays(t *testing.T) {
	cfg := Backoff(5, 10*time.Millisecond, 50*time.Millisecond, 2)

	var delays []time.Duration
	cfg.OnRetry = func(_ int, _ error, d time.Duration) { delays = append(delays, d) }
	cfg.After = func(d time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	err := DoWithRetryable(context.Background(), cfg, func(ctx context.Context) error {
		return errors.New("down")
	}, Always)
	if err == nil {
		t.Fatal("expected error")
	}

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}
	if fmt.Sprint(delays) != fmt.Sprint(want) {
		t.Errorf("expected delays %v, got %v", want, delays)
	}
}

func TestAlways(t *testing.T) {
	if Always(nil) {
		t.Error("nil must not be retryable")
	}
	if !Always(errors.New("anything")) {
		t.Error("any error must be retryable")
	}
}

func TestCalculateDelay(t *testing.T) {
	config := Config{
		InitialDelay: 100 * time.Millisecond,
		MinDelay:     100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond}, // 100 * 2^0
		{2, 200 * time.Millisecond}, // 100 * 2^1
		{3, 400 * time.Millisecond}, // 100 * 2^2
		{4, 800 * time.Millisecond}, // 100 * 2^3
		{5, 1 * time.Second},        // 100 * 2^4 = 1600ms, capped at 1s
		{6, 1 * time.Second},        // still capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := config.calculateDelay(tt.attempt)
			if result != tt.expected {
				t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestConstantDelays(t *testing.T) {
	config := Constant(5, 250*time.Millisecond)
	if err := config.Normalize(); err != nil {
		t.Fatalf("unexpected normalize error: %v", err)
	}

	for attempt := 1; attempt <= 5; attempt++ {
		d := config.calculateDelay(attempt)
		if d != 250*time.Millisecond {
			t.Errorf("attempt %d: expected constant 250ms, got %v", attempt, d)
		}
	}
}

func TestConstantZeroDelay(t *testing.T) {
	config := Constant(3, 0)

	var delays []time.Duration
	config.OnRetry = func(_ int, _ error, d time.Duration) { delays = append(delays, d) }

	var attempts int32
	err := DoWithRetryable(context.Background(), config, func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("fails")
	}, Always)

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(delays) != 2 || delays[0] != 0 || delays[1] != 0 {
		t.Errorf("expected two zero delays, got %v", delays)
	}
}

func TestDoSuccess(t *testing.T) {
	config := Constant(3, 10*time.Millisecond)

	var attempts int32
	err := DoWithRetryable(context.Background(), config, func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return nil
	}, Always)
	if err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoRetryableError(t *testing.T) {
	config := Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}

	var attempts int32
	err := DoWithRetryable(context.Background(), config, func(ctx context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return transientError{"temporary failure", true}
		}
		return nil
	}, isTransient)
	if err != nil {
		t.Errorf("expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoNonRetryableError(t *testing.T) {
	var attempts int32
	expectedErr := errors.New("permanent error")

	err := DoWithRetryable(context.Background(), Constant(3, time.Millisecond), func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return expectedErr
	}, isTransient)

	if err != expectedErr {
		t.Errorf("expected permanent error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt (no retries), got %d", attempts)
	}
}

func TestDoMaxAttemptsReached(t *testing.T) {
	config := Constant(2, time.Millisecond)

	var attempts int32
	expectedErr := transientError{"always fails", true}

	err := DoWithRetryable(context.Background(), config, func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return expectedErr
	}, isTransient)

	var retryErr *RetriesExceededError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetriesExceededError, got %T", err)
	}
	if retryErr.Attempts != 2 {
		t.Errorf("expected Attempts=2, got %d", retryErr.Attempts)
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("should be able to unwrap to original error")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := Constant(5, 50*time.Millisecond)

	var attempts int32
	err := DoWithRetryable(ctx, config, func(ctx context.Context) error {
		if atomic.AddInt32(&attempts, 1) == 2 {
			cancel()
		}
		return errors.New("retryable")
	}, Always)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestDoMaxElapsedTime(t *testing.T) {
	now := time.Unix(0, 0)
	config := Constant(10, time.Second)
	config.MaxElapsedTime = 1500 * time.Millisecond
	config.Now = func() time.Time { return now }
	config.After = func(d time.Duration) <-chan time.Time {
		now = now.Add(d)
		ch := make(chan time.Time, 1)
		ch <- now
		return ch
	}

	var attempts int32
	err := DoWithRetryable(context.Background(), config, func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("down")
	}, Always)

	var retryErr *RetriesExceededError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetriesExceededError, got %T", err)
	}
	if retryErr.Reason != "max elapsed time exceeded" {
		t.Errorf("unexpected reason %q", retryErr.Reason)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts before budget ran out, got %d", attempts)
	}
}

func TestDoInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"zero attempts", Config{MaxAttempts: 0}, "retry: MaxAttempts must be positive"},
		{"negative delay", Config{MaxAttempts: 1, InitialDelay: -time.Second}, "retry: InitialDelay cannot be negative"},
		{"shrinking multiplier", Config{MaxAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 0.5}, "retry: Multiplier must be >= 1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DoWithRetryable(context.Background(), tt.config, func(ctx context.Context) error { return nil }, Always)
			if err == nil || err.Error() != tt.want {
				t.Errorf("expected %q, got: %v", tt.want, err)
			}
		})
	}
}
