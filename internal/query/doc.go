// Package query composes call wrappers around a function that runs one SQL query.
//
// A pipeline is a Func[T] wrapped by Middleware[T] values:
//
//	fetch := query.Chain(
//		query.WithConnection[sqlite.ResultSet](open, query.FetchRows),
//		query.LogQueries[sqlite.ResultSet](log),
//		query.Cached(cache, log),
//		query.Retry[sqlite.ResultSet](query.RetryOptions{Retries: 3, Delay: time.Second}, log),
//	)
//
// The first middleware is the outermost. Here a cached query is still logged,
// and a retry reopens the connection on every attempt because WithConnection
// sits innermost.
//
// Functions that need a live connection are written as ConnFunc[T] and
// adapted with WithConnection. Transactional wraps a ConnFunc[T] so the
// connection is closed only after commit or rollback has finished.
package query
