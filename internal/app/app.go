package app

import (
	"io"
	"log/slog"
	"os"

	"sqlwrap/internal/config"
	"sqlwrap/internal/platform/logger"
	"sqlwrap/internal/platform/sqlite"
)

// App wires configuration, logging and the database opener for the CLI commands.
type App struct {
	cfg  config.Config
	log  *slog.Logger
	open sqlite.Opener
	out  io.Writer
}

// New loads configuration and builds the logger.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "sqlwrap",
	})
	return NewWithConfig(cfg, log, os.Stdout)
}

// NewWithConfig builds an App from already loaded parts. Command output goes to out.
func NewWithConfig(cfg config.Config, log *slog.Logger, out io.Writer) (*App, error) {
	opts, err := sqliteOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:  cfg,
		log:  log,
		open: sqlite.FileOpener(cfg.DB.Path, opts),
		out:  out,
	}, nil
}

// Close flushes the log file, if any.
func (a *App) Close() error {
	return logger.Close(a.log)
}

func sqliteOptions(cfg config.Config) (sqlite.Options, error) {
	opts := sqlite.DefaultOptions()

	mode, err := sqlite.ParseTxLockMode(cfg.DB.TxLock)
	if err != nil {
		return sqlite.Options{}, err
	}
	opts.TxLockMode = mode
	if cfg.DB.BusyTimeout > 0 {
		opts.BusyTimeout = cfg.DB.BusyTimeout
	}
	return opts, nil
}
