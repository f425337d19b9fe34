package query

import (
	"context"
	"log/slog"
	"time"

	"sqlwrap/internal/shared"
	"sqlwrap/pkg/retry"
)

// RetryOptions configures Retry.
type RetryOptions struct {
	// Retries is the maximum number of attempts, at least 1.
	Retries int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

// Retry calls next up to opts.Retries times, pausing opts.Delay between
// failed attempts. Any error triggers another attempt. When every attempt
// fails the result is a *retry.RetriesExceededError wrapping the last error.
func Retry[T any](opts RetryOptions, log *slog.Logger) Middleware[T] {
	return func(next Func[T]) Func[T] {
		return func(ctx context.Context, q Query) (T, error) {
			var zero T
			if opts.Retries < 1 {
				return zero, shared.Validation("retries must be at least 1, got %d", opts.Retries)
			}
			if opts.Delay < 0 {
				return zero, shared.Validation("retry delay cannot be negative, got %s", opts.Delay)
			}

			var (
				out     T
				attempt int
			)
			err := retry.DoWithRetryable(ctx, retry.Constant(opts.Retries, opts.Delay), func(ctx context.Context) error {
				attempt++
				v, err := next(ctx, q)
				if err != nil {
					log.WarnContext(ctx, "query attempt failed",
						slog.Int("attempt", attempt),
						slog.Int("retries", opts.Retries),
						slog.Any("error", err),
					)
					return err
				}
				out = v
				return nil
			}, retry.Always)
			if err != nil {
				return zero, err
			}
			return out, nil
		}
	}
}
