package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"sqlwrap/internal/shared"
)

// ErrTxUnsupported возвращается, если querier не умеет начинать транзакции.
var ErrTxUnsupported = errors.New("querier cannot begin transactions")

// Classify помечает ошибку драйвера видом из shared.
// Ошибки, которые уже имеют вид, и nil возвращаются без изменений.
func Classify(err error) error {
	if err == nil || shared.KindOf(err) != shared.KindUnknown {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return shared.MarkKind(err, shared.KindNotFound)
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		// Code() возвращает расширенный код, младший байт - основной
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return shared.MarkKind(err, shared.KindBusy)
		case sqlite3lib.SQLITE_CONSTRAINT:
			return shared.MarkKind(err, shared.KindConstraint)
		case sqlite3lib.SQLITE_CANTOPEN, sqlite3lib.SQLITE_NOTADB, sqlite3lib.SQLITE_PERM:
			return shared.MarkKind(err, shared.KindUnavailable)
		default:
			return shared.MarkKind(err, shared.KindQuery)
		}
	}

	// Запасной вариант для обёрнутых ошибок без *sqlite.Error
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "sqlite_busy"),
		strings.Contains(msg, "database table is locked"):
		return shared.MarkKind(err, shared.KindBusy)
	case strings.Contains(msg, "constraint failed"):
		return shared.MarkKind(err, shared.KindConstraint)
	}

	return err
}

// IsTransient сообщает, имеет ли смысл повторить операцию позже:
// база недоступна, занята другим писателем или истёк таймаут.
func IsTransient(err error) bool {
	switch shared.KindOf(err) {
	case shared.KindUnavailable, shared.KindBusy, shared.KindTimeout:
		return true
	default:
		return false
	}
}
