package sqlite

import (
	"context"
	"fmt"
	"iter"
)

// Stream выполняет запрос на q и отдаёт строки по одной.
// Курсор закрывается, когда итерация заканчивается или прерывается.
// Ошибка отдаётся последним элементом, после неё итерация прекращается.
func Stream(ctx context.Context, q Querier, query string, args ...any) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("query: %w", Classify(err)))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(nil, fmt.Errorf("columns: %w", err))
			return
		}

		for rows.Next() {
			row, err := scanRow(rows, len(cols))
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("rows: %w", Classify(err)))
		}
	}
}

// StreamQuery открывает собственное соединение на время итерации
// и закрывает его по её окончании.
func StreamQuery(ctx context.Context, open Opener, query string, args ...any) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		stopped := false
		err := WithConn(ctx, open, func(ctx context.Context, conn *Conn) error {
			for row, err := range Stream(ctx, conn, query, args...) {
				if err != nil {
					return err
				}
				if !yield(row, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}
