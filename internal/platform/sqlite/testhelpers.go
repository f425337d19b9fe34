package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

// TestDB представляет тестовую файловую базу с применёнными миграциями.
type TestDB struct {
	Path    string
	Options Options
	Open    Opener
}

// NewTestDBFile создает файловую SQLite БД во временной директории теста
// и применяет встроенные миграции. Директория удаляется после теста.
func NewTestDBFile(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	if err := ApplyMigrations(path); err != nil {
		t.Fatalf("Failed to apply test migrations: %v", err)
	}

	opts := DefaultOptions()
	tdb := &TestDB{
		Path:    path,
		Options: opts,
		Open:    FileOpener(path, opts),
	}

	// Первое открытие переводит файл в WAL, дальше режим сохраняется в самом файле
	conn, err := tdb.Open(context.Background())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	_ = conn.Close()

	return tdb
}

// Conn открывает соединение, которое закрывается после теста.
func (tdb *TestDB) Conn(t *testing.T) *Conn {
	t.Helper()

	conn, err := tdb.Open(context.Background())
	if err != nil {
		t.Fatalf("Failed to open test connection: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// Exec выполняет SQL команду на отдельном соединении и проверяет отсутствие ошибок.
func (tdb *TestDB) Exec(t *testing.T, query string, args ...any) {
	t.Helper()

	err := WithConn(context.Background(), tdb.Open, func(ctx context.Context, conn *Conn) error {
		_, err := conn.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to execute query: %v", err)
	}
}

// MustSeedData выполняет запросы по порядку и падает при первой ошибке.
func (tdb *TestDB) MustSeedData(t *testing.T, queries ...string) {
	t.Helper()

	for _, query := range queries {
		tdb.Exec(t, query)
	}
}

// QueryAll выполняет запрос на отдельном соединении и возвращает все строки.
func (tdb *TestDB) QueryAll(t *testing.T, query string, args ...any) ResultSet {
	t.Helper()

	rows, err := FetchAll(context.Background(), tdb.Open, query, args...)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	return rows
}

// CountRows возвращает количество строк в таблице.
func (tdb *TestDB) CountRows(t *testing.T, tableName string) int {
	t.Helper()

	rows := tdb.QueryAll(t, "SELECT COUNT(*) FROM "+tableName)
	return int(rows[0][0].(int64))
}

// TableExists проверяет существование таблицы.
func (tdb *TestDB) TableExists(t *testing.T, tableName string) bool {
	t.Helper()

	rows := tdb.QueryAll(t, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName)
	return rows[0][0].(int64) > 0
}

// Probe запоминает соединения, открытые через обёрнутый Opener,
// чтобы тест мог проверить, что все они закрыты.
type Probe struct {
	mu    sync.Mutex
	conns []*Conn
}

// Wrap возвращает Opener, который регистрирует каждое успешно открытое соединение.
func (p *Probe) Wrap(open Opener) Opener {
	return func(ctx context.Context) (*Conn, error) {
		conn, err := open(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.conns = append(p.conns, conn)
		p.mu.Unlock()
		return conn, nil
	}
}

// Opened возвращает количество открытых соединений.
func (p *Probe) Opened() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// AllClosed сообщает, закрыто ли каждое открытое соединение.
func (p *Probe) AllClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		if !c.Closed() {
			return false
		}
	}
	return true
}

// Last возвращает последнее открытое соединение или nil.
func (p *Probe) Last() *Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.conns) == 0 {
		return nil
	}
	return p.conns[len(p.conns)-1]
}
