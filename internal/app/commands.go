package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sqlwrap/internal/adapter/scheduler"
	"sqlwrap/internal/platform/sqlite"
	"sqlwrap/internal/query"
	"sqlwrap/internal/shared"
	"sqlwrap/internal/users"
	"sqlwrap/pkg/retry"
)

// Connect prints every user through a scoped connection.
func (a *App) Connect(ctx context.Context) error {
	return sqlite.WithConn(ctx, a.open, func(ctx context.Context, conn *sqlite.Conn) error {
		rows, err := sqlite.QueryAll(ctx, conn, "SELECT * FROM users")
		if err != nil {
			return err
		}
		return a.printRows(rows)
	})
}

// Query prints users older than minAge through a scoped parameterized query.
func (a *App) Query(ctx context.Context, minAge int) error {
	return sqlite.WithQuery(ctx, a.open, "SELECT * FROM users WHERE age > ?", []any{minAge}, a.printRows)
}

// Concurrent runs the two-query report.
func (a *App) Concurrent(ctx context.Context) error {
	_, _, err := users.FetchConcurrently(ctx, a.open, a.out)
	return err
}

// Fetch runs text through the logging, caching and retrying pipeline repeat times.
// Every run after the first is answered from the cache.
func (a *App) Fetch(ctx context.Context, text string, args []any, repeat int) error {
	cache := query.NewCache[sqlite.ResultSet]()
	fetch := query.Chain(
		query.WithConnection[sqlite.ResultSet](a.open, query.FetchRows),
		query.LogQueries[sqlite.ResultSet](a.log),
		query.Cached(cache, a.log),
		query.Retry[sqlite.ResultSet](query.RetryOptions{Retries: a.cfg.Retry.Attempts, Delay: a.cfg.Retry.Delay}, a.log),
	)

	q := query.New(text, args...)
	for range max(repeat, 1) {
		rows, err := fetch(ctx, q)
		if err != nil {
			return err
		}
		if err := a.printRows(rows); err != nil {
			return err
		}
	}

	stats := cache.Stats()
	a.log.Debug("cache stats", slog.Int("entries", stats.Entries), slog.Uint64("hits", stats.Hits), slog.Uint64("misses", stats.Misses))
	return nil
}

// Get prints one user looked up on an injected connection.
func (a *App) Get(ctx context.Context, id int64) error {
	get := query.Chain(
		query.WithConnection[users.User](a.open, users.FetchOne),
		query.LogQueries[users.User](a.log),
	)

	u, err := get(ctx, users.ByID(id))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, u)
	return err
}

// SetEmail changes a user's email inside a transaction.
func (a *App) SetEmail(ctx context.Context, id int64, email string) error {
	update := query.Chain(
		query.WithConnection[int64](a.open, query.Transactional[int64](users.ApplyUpdate)),
		query.LogQueries[int64](a.log),
	)

	if _, err := update(ctx, users.EmailUpdate(id, email)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.out, "user %d updated\n", id)
	return err
}

// Stream prints users one at a time. With raw set the rows are streamed
// untyped, exactly as SELECT * returns them.
func (a *App) Stream(ctx context.Context, raw bool) error {
	if raw {
		for row, err := range sqlite.StreamQuery(ctx, a.open, "SELECT * FROM users") {
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(a.out, row); err != nil {
				return err
			}
		}
		return nil
	}

	for u, err := range users.Stream(ctx, a.open) {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(a.out, u); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until the database can be opened, the attempts run out
// or the configured time budget is spent.
func (a *App) Wait(ctx context.Context) error {
	w := a.cfg.Wait
	cfg := retry.Backoff(w.Attempts, w.Delay, w.MaxDelay, max(w.Backoff, 1))
	cfg.MaxElapsedTime = w.MaxElapsed
	return sqlite.WaitReady(ctx, a.open, cfg, a.log)
}

// Migrate applies the embedded schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	if err := sqlite.ApplyMigrations(a.cfg.DB.Path); err != nil {
		return err
	}
	version, dirty, err := sqlite.MigrationVersion(a.cfg.DB.Path)
	if err != nil {
		return err
	}
	a.log.InfoContext(ctx, "migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}

// Watch re-runs the concurrent report on schedule until ctx is canceled.
// An empty schedule or overlap policy falls back to the configured one.
func (a *App) Watch(ctx context.Context, schedule, overlap string) error {
	if schedule == "" {
		schedule = a.cfg.Watch.Schedule
	}
	if overlap == "" {
		overlap = a.cfg.Watch.Overlap
	}
	policy, err := scheduler.ParseOverlapPolicy(overlap)
	if err != nil {
		return shared.Validation("%v", err)
	}

	var s *scheduler.Scheduler
	s = scheduler.NewWithContext(ctx, scheduler.Config{
		Logger: a.log,
		JobHooks: scheduler.JobHooks{
			OnJobFinish: func(name string, id scheduler.JobID, d time.Duration, err error) {
				a.log.Info("report finished",
					slog.String("job", name),
					slog.Duration("duration", d),
					slog.Bool("ok", err == nil),
					slog.Time("next", s.Next(id)),
				)
			},
		},
	})
	_, err = s.AddJob(schedule, func(ctx context.Context) error {
		_, _, err := users.FetchConcurrently(ctx, a.open, a.out)
		return err
	}, scheduler.JobOptions{
		Name:          "users-report",
		Timeout:       30 * time.Second,
		OverlapPolicy: policy,
		RunOnStart:    true,
	})
	if err != nil {
		return err
	}

	return s.Run(ctx, 5*time.Second)
}

func (a *App) printRows(rows sqlite.ResultSet) error {
	for _, row := range rows {
		if _, err := fmt.Fprintln(a.out, row); err != nil {
			return err
		}
	}
	return nil
}
