package query

import (
	"context"
	"log/slog"
)

// LogQueries logs the SQL text before delegating. Empty queries are not logged.
func LogQueries[T any](log *slog.Logger) Middleware[T] {
	return func(next Func[T]) Func[T] {
		return func(ctx context.Context, q Query) (T, error) {
			if q.Text != "" {
				log.InfoContext(ctx, "executing query", slog.String("sql", q.Text))
			}
			return next(ctx, q)
		}
	}
}
