package query

import (
	"context"

	"sqlwrap/internal/platform/sqlite"
)

// WithConnection opens a fresh connection for every call, passes it to fn
// and closes it when fn returns.
func WithConnection[T any](open sqlite.Opener, fn ConnFunc[T]) Func[T] {
	return func(ctx context.Context, q Query) (T, error) {
		var out T
		err := sqlite.WithConn(ctx, open, func(ctx context.Context, conn *sqlite.Conn) error {
			var err error
			out, err = fn(ctx, conn, q)
			return err
		})
		if err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}

// Transactional runs fn inside a transaction on db.
// The transaction commits when fn succeeds; otherwise it is rolled back and
// fn's error is returned as is. A db that is already a transaction gets a savepoint.
func Transactional[T any](fn ConnFunc[T]) ConnFunc[T] {
	return func(ctx context.Context, db sqlite.Querier, q Query) (T, error) {
		var out T
		err := sqlite.WithinTx(ctx, db, func(ctx context.Context, tx sqlite.Querier) error {
			var err error
			out, err = fn(ctx, tx, q)
			return err
		})
		if err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}
