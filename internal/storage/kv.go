package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// Engine names accepted by Open.
const (
	EngineBadger = "badger"
	EngineSQLite = "sqlite"
	EngineMemory = "memory"
)

// KVEngine defines the interface for embedded key-value storage.
//
// Implementations must be safe for concurrent use. After Close every
// method returns ErrClosed.
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix in key order.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Sync flushes buffered writes to durable storage.
	Sync(ctx context.Context) error

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close gracefully shuts down the engine.
	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// Engine is the engine name.
	Engine string

	// TotalKeys is the number of live keys.
	TotalKeys uint64

	// TotalSize is the approximate storage footprint in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size (Badger only).
	LSMSize uint64

	// ValueLogSize is the value log size (Badger only).
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Engine is "badger", "sqlite" or "memory".
	// Default: "badger"
	Engine string

	// Dir is the storage directory. The badger engine uses it directly;
	// the sqlite engine places its file inside it unless SQLite.Path is set.
	Dir string

	Badger BadgerConfig
	SQLite SQLiteConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 8MB; the auto-save record is a single key.
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites enables fsync after each write. Sync is called
	// explicitly after every auto-save either way.
	// Default: false
	SyncWrites bool
}

// SQLiteConfig contains SQLite-specific parameters.
type SQLiteConfig struct {
	// Path is the database file. Default: <Dir>/canvas.db
	Path string

	// BusyTimeout is PRAGMA busy_timeout.
	// Default: 5s
	BusyTimeout time.Duration

	// Synchronous is PRAGMA synchronous.
	// Default: "NORMAL"
	Synchronous string
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: EngineBadger,
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
		SQLite: DefaultSQLiteConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        8 << 20,  // 8MB
		ValueLogFileSize: 64 << 20, // 64MB
		NumMemtables:     2,
	}
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BusyTimeout: 5 * time.Second,
		Synchronous: "NORMAL",
	}
}

// Open creates the engine named by cfg.Engine. registry may be nil; when
// set, a store statistics collector is registered with it.
func Open(cfg KVConfig, logger *slog.Logger, registry *prometheus.Registry) (KVEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		engine KVEngine
		err    error
	)
	switch cfg.Engine {
	case "", EngineBadger:
		var b *BadgerEngine
		b, err = NewBadgerEngine(cfg, logger)
		if err == nil && registry != nil {
			b.RegisterMetrics(registry)
		}
		engine = b
	case EngineSQLite:
		engine, err = NewSQLiteEngine(cfg, logger)
	case EngineMemory:
		engine = NewMemoryEngine()
	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	if registry != nil {
		if err := registry.Register(newStatsCollector(engine)); err != nil {
			logger.Warn("store collector not registered", "error", err)
		}
	}
	return engine, nil
}
