package users

import (
	"context"
	"iter"

	"sqlwrap/internal/platform/sqlite"
)

// Stream opens its own connection and yields users one at a time.
// The connection is closed when iteration ends or the consumer stops early.
func Stream(ctx context.Context, open sqlite.Opener) iter.Seq2[User, error] {
	return func(yield func(User, error) bool) {
		stopped := false
		err := sqlite.WithConn(ctx, open, func(ctx context.Context, conn *sqlite.Conn) error {
			for u, err := range NewStore(conn).Stream(ctx) {
				if err != nil {
					return err
				}
				if !yield(u, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(User{}, err)
		}
	}
}
