package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

const sqliteDefaultFile = "canvas.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID`

// SQLiteEngine implements KVEngine on a single SQLite table.
type SQLiteEngine struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	closed atomic.Bool
}

// NewSQLiteEngine opens (creating if needed) the SQLite database and
// applies the connection pragmas.
func NewSQLiteEngine(cfg KVConfig, logger *slog.Logger) (*SQLiteEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("engine", EngineSQLite)

	sc := cfg.SQLite
	defaults := DefaultSQLiteConfig()
	if sc.BusyTimeout <= 0 {
		sc.BusyTimeout = defaults.BusyTimeout
	}
	if sc.Synchronous == "" {
		sc.Synchronous = defaults.Synchronous
	}

	path := sc.Path
	if path == "" {
		if cfg.Dir == "" {
			return nil, fmt.Errorf("sqlite: dir or path is required")
		}
		path = filepath.Join(cfg.Dir, sqliteDefaultFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("sqlite: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; the auto-save workload is a single hot key.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", sc.BusyTimeout.Milliseconds()),
		fmt.Sprintf("PRAGMA synchronous = %s", sc.Synchronous),
		sqliteSchema,
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", stmt, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	logger.Info("sqlite engine started", "path", path)
	return &SQLiteEngine{db: db, path: path, logger: logger}, nil
}

// Get retrieves a value by key.
func (e *SQLiteEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	var value []byte
	err := e.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *SQLiteEngine) Set(ctx context.Context, key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	_, err := e.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Delete removes a key.
func (e *SQLiteEngine) Delete(ctx context.Context, key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	_, err := e.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Scan iterates over keys with a given prefix in key order.
func (e *SQLiteEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	rows, err := e.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key >= ? ORDER BY key`, prefix)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		if !fn(key, value) {
			break
		}
	}
	return rows.Err()
}

// Sync checkpoints the write-ahead log into the main database file.
func (e *SQLiteEngine) Sync(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	_, err := e.db.ExecContext(ctx, `PRAGMA wal_checkpoint(PASSIVE)`)
	return err
}

// Stats returns storage statistics.
func (e *SQLiteEngine) Stats(ctx context.Context) (*KVStats, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	var keys, size int64
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM kv`).Scan(&keys, &size); err != nil {
		return nil, err
	}
	return &KVStats{
		Engine:    EngineSQLite,
		TotalKeys: uint64(keys),
		TotalSize: uint64(size),
	}, nil
}

// Close closes the database. It is safe to call twice.
func (e *SQLiteEngine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("sqlite: close: %w", err)
	}
	e.logger.Info("sqlite engine closed", "path", e.path)
	return nil
}
