package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row - одна строка результата в порядке колонок запроса.
type Row []any

// ResultSet - материализованный результат запроса.
// Не изменяйте его: один и тот же ResultSet может храниться в кэше.
type ResultSet []Row

// String форматирует строку как кортеж: (1, 'Alice', 30, 'a@x.com').
func (r Row) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range r {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatValue(v))
	}
	b.WriteByte(')')
	return b.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return "'" + v.Format(time.RFC3339) + "'"
	default:
		return fmt.Sprint(v)
	}
}

// WithConn открывает соединение, передаёт его в fn и закрывает при любом выходе,
// включая ошибку и панику внутри fn.
// Ошибка открытия возвращается как есть, fn при этом не вызывается.
// Ошибка закрытия возвращается только если fn завершилась успешно.
func WithConn(ctx context.Context, open Opener, fn func(ctx context.Context, conn *Conn) error) (err error) {
	conn, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close connection: %w", closeErr)
		}
	}()

	return fn(ctx, conn)
}

// WithQuery открывает соединение, выполняет запрос с позиционными параметрами,
// выбирает все строки и передаёт их в fn, пока соединение ещё открыто.
func WithQuery(ctx context.Context, open Opener, query string, args []any, fn func(rows ResultSet) error) error {
	return WithConn(ctx, open, func(ctx context.Context, conn *Conn) error {
		rows, err := QueryAll(ctx, conn, query, args...)
		if err != nil {
			return err
		}
		return fn(rows)
	})
}

// FetchAll открывает соединение, выполняет запрос, выбирает все строки и закрывает соединение.
func FetchAll(ctx context.Context, open Opener, query string, args ...any) (ResultSet, error) {
	var out ResultSet
	err := WithQuery(ctx, open, query, args, func(rows ResultSet) error {
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryAll выполняет запрос на q и материализует все строки.
func QueryAll(ctx context.Context, q Querier, query string, args ...any) (ResultSet, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", Classify(err))
	}
	defer rows.Close()

	return ScanAll(rows)
}

// ScanAll читает все строки из rows. []byte значения превращаются в string.
func ScanAll(rows *sql.Rows) (ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := ResultSet{}
	for rows.Next() {
		row, err := scanRow(rows, len(cols))
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", Classify(err))
	}
	return out, nil
}

func scanRow(rows *sql.Rows, n int) (Row, error) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return Row(vals), nil
}
