package sqlite

import (
	"context"
	"log/slog"
	"time"

	"sqlwrap/pkg/retry"
)

// WaitReady пытается открыть и проверить базу, пока она не станет доступна
// или не закончатся попытки cfg. Повторяются только временные ошибки (IsTransient).
func WaitReady(ctx context.Context, open Opener, cfg retry.Config, log *slog.Logger) error {
	log.Info("waiting for database")

	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("database unavailable, waiting",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
	}

	err := retry.DoWithRetryable(ctx, cfg, func(ctx context.Context) error {
		conn, err := open(ctx)
		if err != nil {
			return err
		}
		return conn.Close()
	}, IsTransient)
	if err != nil {
		log.Error("database unavailable after retries", slog.Any("error", err))
		return err
	}

	log.Info("database available")
	return nil
}
