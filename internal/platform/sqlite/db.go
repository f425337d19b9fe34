package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite драйвер

	"sqlwrap/internal/shared"
)

// TxLockMode определяет режим блокировки транзакций SQLite
type TxLockMode string

const (
	// TxLockDeferred - откладывает блокировку до первого чтения/записи (по умолчанию SQLite)
	TxLockDeferred TxLockMode = "deferred"
	// TxLockImmediate - немедленно захватывает RESERVED блокировку для избежания SQLITE_BUSY при записи
	TxLockImmediate TxLockMode = "immediate"
	// TxLockExclusive - немедленно захватывает EXCLUSIVE блокировку
	TxLockExclusive TxLockMode = "exclusive"
)

// AccessMode определяет режим доступа к SQLite базе данных
type AccessMode string

const (
	// AccessModeReadWrite - чтение и запись, файл должен существовать (по умолчанию)
	AccessModeReadWrite AccessMode = "rw"
	// AccessModeReadOnly - режим только для чтения
	AccessModeReadOnly AccessMode = "ro"
	// AccessModeReadWriteCreate - режим чтения/записи с созданием файла если не существует
	AccessModeReadWriteCreate AccessMode = "rwc"
)

// Options содержит настройки одного соединения.
type Options struct {
	// PingTimeout - таймаут проверки соединения при открытии
	PingTimeout time.Duration
	// WALMode - использовать ли WAL режим журнала
	WALMode bool
	// ForeignKeys - включить ли проверку внешних ключей
	ForeignKeys bool
	// BusyTimeout - таймаут ожидания при SQLITE_BUSY
	BusyTimeout time.Duration
	// TxLockMode - режим блокировки для BeginTx
	TxLockMode TxLockMode
	// AccessMode - режим доступа к файлу базы
	AccessMode AccessMode
}

// DefaultOptions возвращает настройки по умолчанию.
// Файл базы должен уже существовать: схема создаётся миграциями, а не при открытии.
func DefaultOptions() Options {
	return Options{
		PingTimeout: 5 * time.Second,
		WALMode:     true,
		ForeignKeys: true,
		BusyTimeout: 5 * time.Second,
		TxLockMode:  TxLockDeferred,
		AccessMode:  AccessModeReadWrite,
	}
}

// Opener открывает новое приватное соединение.
// Каждый вызов даёт отдельное соединение, которое вызывающий обязан закрыть.
type Opener func(ctx context.Context) (*Conn, error)

// FileOpener возвращает Opener для файла dbPath с заданными настройками.
func FileOpener(dbPath string, opts Options) Opener {
	return func(ctx context.Context) (*Conn, error) {
		return Open(ctx, dbPath, opts)
	}
}

// Open открывает одно соединение к файлу базы.
// Пул database/sql ограничен одним соединением и закрывается вместе с Conn,
// так что соединения не переиспользуются между операциями.
func Open(ctx context.Context, dbPath string, opts Options) (*Conn, error) {
	// Создаем директорию для БД только если разрешено создание файла
	if opts.AccessMode == AccessModeReadWriteCreate {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, shared.MarkKind(fmt.Errorf("create directory %s: %w", dir, err), shared.KindUnavailable)
			}
		}
	}

	db, err := sql.Open("sqlite", buildDSN(dbPath, opts))
	if err != nil {
		return nil, shared.MarkKind(fmt.Errorf("open sqlite database: %w", err), shared.KindUnavailable)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := acquire(ctx, db, opts)
	if err != nil {
		_ = db.Close()
		return nil, shared.MarkKind(fmt.Errorf("open %s: %w", dbPath, err), shared.KindUnavailable)
	}

	return &Conn{db: db, conn: conn, path: dbPath}, nil
}

// acquire берёт выделенное соединение из пула и проверяет его.
func acquire(ctx context.Context, db *sql.DB, opts Options) (*sql.Conn, error) {
	pingCtx := ctx
	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}

	conn, err := db.Conn(pingCtx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// journal_mode возвращает строку, поэтому применяем его отдельно от DSN
	if opts.WALMode {
		var mode string
		if err := conn.QueryRowContext(pingCtx, "PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	return conn, nil
}

// buildDSN строит file: URI для драйвера modernc.
// PRAGMA передаются через _pragma, чтобы драйвер применял их к каждому новому соединению.
func buildDSN(dbPath string, opts Options) string {
	params := url.Values{}

	if opts.AccessMode != "" {
		params.Set("mode", string(opts.AccessMode))
	}

	var pragmas []string
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if opts.ForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	pragmas = append(pragmas, "synchronous(NORMAL)")
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}

	if opts.TxLockMode != "" && opts.TxLockMode != TxLockDeferred {
		params.Set("_txlock", string(opts.TxLockMode))
	}

	// url.Values кодирует скобки, драйвер их раскодирует
	return "file:" + filepath.ToSlash(dbPath) + "?" + params.Encode()
}

// ParseTxLockMode разбирает режим блокировки из строки конфигурации.
func ParseTxLockMode(s string) (TxLockMode, error) {
	switch mode := TxLockMode(strings.ToLower(s)); mode {
	case "", TxLockDeferred:
		return TxLockDeferred, nil
	case TxLockImmediate, TxLockExclusive:
		return mode, nil
	default:
		return "", shared.Validation("unknown transaction lock mode %q", s)
	}
}
