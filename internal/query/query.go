package query

import (
	"context"

	"sqlwrap/internal/platform/sqlite"
)

// Query is SQL text with positional bind arguments.
type Query struct {
	Text string
	Args []any
}

// New builds a Query.
func New(text string, args ...any) Query {
	return Query{Text: text, Args: args}
}

// Func runs a query and returns its result.
type Func[T any] func(ctx context.Context, q Query) (T, error)

// ConnFunc runs a query on a connection or transaction supplied by the caller.
type ConnFunc[T any] func(ctx context.Context, db sqlite.Querier, q Query) (T, error)

// Middleware wraps a Func.
type Middleware[T any] func(Func[T]) Func[T]

// Chain applies middlewares in order: mws[0] is the outermost.
func Chain[T any](f Func[T], mws ...Middleware[T]) Func[T] {
	for i := len(mws) - 1; i >= 0; i-- {
		f = mws[i](f)
	}
	return f
}

// FetchRows runs q and materializes every row.
func FetchRows(ctx context.Context, db sqlite.Querier, q Query) (sqlite.ResultSet, error) {
	return sqlite.QueryAll(ctx, db, q.Text, q.Args...)
}

// Exec runs a statement and returns the number of affected rows.
func Exec(ctx context.Context, db sqlite.Querier, q Query) (int64, error) {
	res, err := db.ExecContext(ctx, q.Text, q.Args...)
	if err != nil {
		return 0, sqlite.Classify(err)
	}
	return res.RowsAffected()
}
