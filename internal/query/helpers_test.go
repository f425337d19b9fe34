package query_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"sqlwrap/internal/platform/sqlite"
	"sqlwrap/internal/query"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// counting returns a Func that records its calls and answers with fn.
func counting[T any](calls *int, fn func(n int) (T, error)) query.Func[T] {
	var mu sync.Mutex
	return func(ctx context.Context, q query.Query) (T, error) {
		mu.Lock()
		*calls++
		n := *calls
		mu.Unlock()
		return fn(n)
	}
}

func seededDB(t *testing.T) *sqlite.TestDB {
	t.Helper()
	testDB := sqlite.NewTestDBFile(t)
	testDB.MustSeedData(t,
		"INSERT INTO users (id, name, age, email) VALUES (1, 'Alice', 30, 'a@x.com')",
		"INSERT INTO users (id, name, age, email) VALUES (2, 'Bob', 45, 'b@x.com')",
	)
	return testDB
}
