package users

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"

	"sqlwrap/internal/platform/sqlite"
	"sqlwrap/internal/query"
	"sqlwrap/internal/shared"
)

const (
	selectAll   = "SELECT id, name, age, email FROM users ORDER BY id"
	selectByID  = "SELECT id, name, age, email FROM users WHERE id = ?"
	updateEmail = "UPDATE users SET email = ? WHERE id = ?"
)

var mapper = reflectx.NewMapperFunc("db", strings.ToLower)

// Store runs user queries on a connection or transaction owned by the caller.
type Store struct {
	db sqlite.Querier
}

// NewStore creates a Store on db.
func NewStore(db sqlite.Querier) *Store {
	return &Store{db: db}
}

// Stream yields users one at a time without loading the table into memory.
func (s *Store) Stream(ctx context.Context) iter.Seq2[User, error] {
	return func(yield func(User, error) bool) {
		rows, err := s.db.QueryContext(ctx, selectAll)
		if err != nil {
			yield(User{}, fmt.Errorf("query users: %w", sqlite.Classify(err)))
			return
		}
		r := &sqlx.Rows{Rows: rows, Mapper: mapper}
		defer r.Close()

		for r.Next() {
			var u User
			if err := r.StructScan(&u); err != nil {
				yield(User{}, fmt.Errorf("scan user: %w", err))
				return
			}
			if !yield(u, nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			yield(User{}, fmt.Errorf("iterate users: %w", sqlite.Classify(err)))
		}
	}
}

// ByID builds the query for one user.
func ByID(id int64) query.Query {
	return query.New(selectByID, id)
}

// EmailUpdate builds the statement that changes a user's email.
func EmailUpdate(id int64, email string) query.Query {
	return query.New(updateEmail, email, id)
}

// FetchOne runs q and maps its first row to a User.
// It fails with kind NotFound when q returns no rows.
func FetchOne(ctx context.Context, db sqlite.Querier, q query.Query) (User, error) {
	users, err := selectUsers(ctx, db, q.Text, q.Args...)
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, fmt.Errorf("user %v: %w", q.Args, shared.ErrNotFound)
	}
	return users[0], nil
}

// ApplyUpdate runs an update and fails with kind NotFound when no row matched.
func ApplyUpdate(ctx context.Context, db sqlite.Querier, q query.Query) (int64, error) {
	n, err := query.Exec(ctx, db, q)
	if err != nil {
		return 0, fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("update user: no matching row: %w", shared.ErrNotFound)
	}
	return n, nil
}

func selectUsers(ctx context.Context, db sqlite.Querier, q string, args ...any) ([]User, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", sqlite.Classify(err))
	}
	defer rows.Close()

	users := []User{}
	if err := sqlx.StructScan(&sqlx.Rows{Rows: rows, Mapper: mapper}, &users); err != nil {
		return nil, fmt.Errorf("scan users: %w", sqlite.Classify(err))
	}
	return users, nil
}
