// Package retry provides retry logic with constant or growing delays
// and pluggable retryability checks.
//
// Key Features:
//   - Constant delays (Constant) and exponential backoff (Backoff)
//   - Configurable time and attempt limits
//   - Observability hook (OnRetry callback)
//   - Full testability support (time abstraction)
//
// Fixed delay, every error retryable:
//
//	cfg := retry.Constant(3, time.Second)
//	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
//	    logger.Warn("attempt failed", "attempt", attempt, "error", err)
//	}
//	err := retry.DoWithRetryable(ctx, cfg, fn, retry.Always)
//
// Growing delay with an overall time budget:
//
//	cfg := retry.Backoff(10, 500*time.Millisecond, 5*time.Second, 2)
//	cfg.MaxElapsedTime = time.Minute
//	err := retry.DoWithRetryable(ctx, cfg, fn, isTransient)
//
// When attempts run out the returned *RetriesExceededError wraps the last
// failure, so errors.Is and errors.As still see it.
package retry
