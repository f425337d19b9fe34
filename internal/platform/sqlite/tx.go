package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Querier объединяет методы выполнения запросов, общие для соединения и транзакции.
// Позволяет коду работать с одним интерфейсом независимо от того,
// выполняется ли запрос в транзакции или напрямую на соединении.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// txBeginner - всё, что умеет начинать транзакцию.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Убедимся на этапе компиляции, что типы реализуют интерфейс
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
	_ Querier = (*sql.Conn)(nil)
)

// TxFunc выполняется внутри транзакции и получает её как Querier.
type TxFunc func(ctx context.Context, tx Querier) error

// WithinTx выполняет fn внутри транзакции, начатой на q.
// Если fn возвращает ошибку, транзакция откатывается и возвращается та же ошибка.
// Если fn выполняется успешно, транзакция коммитится.
// Если q уже является транзакцией, fn выполняется внутри savepoint.
func WithinTx(ctx context.Context, q Querier, fn TxFunc) error {
	if tx, ok := q.(*sql.Tx); ok {
		return withinSavepoint(ctx, tx, fn)
	}

	b, ok := q.(txBeginner)
	if !ok {
		return fmt.Errorf("%w: %T", ErrTxUnsupported, q)
	}

	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", Classify(err))
	}

	// Паника внутри fn не должна оставлять транзакцию открытой
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", Classify(err))
	}
	return nil
}

// withinSavepoint выполняет функцию внутри savepoint.
// При ошибке откатывается к savepoint, при успехе - освобождает его.
func withinSavepoint(ctx context.Context, tx *sql.Tx, fn TxFunc) error {
	name := savepointName()

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint %s: %w", name, Classify(err))
	}

	if err := fn(ctx, tx); err != nil {
		if _, rollbackErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rollbackErr != nil {
			// Если не удалось откатиться к savepoint, возвращаем обе ошибки
			return fmt.Errorf("failed to rollback to savepoint %s: %v (original error: %w)", name, rollbackErr, err)
		}
		// Освобождаем savepoint после отката
		_, _ = tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint %s: %w", name, Classify(err))
	}
	return nil
}

// savepointName генерирует уникальный идентификатор, допустимый в SQL без кавычек.
func savepointName() string {
	return "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
