package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
)

// Conn - приватное соединение к одному файлу базы.
// Принадлежит только тому, кто его открыл, и закрывается ровно один раз.
type Conn struct {
	db   *sql.DB
	conn *sql.Conn
	path string

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Убедимся на этапе компиляции, что Conn реализует интерфейсы
var (
	_ Querier    = (*Conn)(nil)
	_ txBeginner = (*Conn)(nil)
)

// Path возвращает путь к файлу базы.
func (c *Conn) Path() string {
	return c.path
}

// Closed сообщает, было ли соединение закрыто.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// Close освобождает соединение и пул. Повторные вызовы ничего не делают.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(c.conn.Close(), c.db.Close())
		c.closed.Store(true)
	})
	return c.closeErr
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.conn.ExecContext(ctx, query, args...)
	return res, Classify(err)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	return rows, Classify(err)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (c *Conn) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	stmt, err := c.conn.PrepareContext(ctx, query)
	return stmt, Classify(err)
}

// BeginTx начинает транзакцию на этом соединении.
// Режим блокировки задаётся через Options.TxLockMode при открытии.
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := c.conn.BeginTx(ctx, opts)
	return tx, Classify(err)
}

// PingContext проверяет, что соединение живо.
func (c *Conn) PingContext(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}
