package config

import (
	"os"
	"path/filepath"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/core/history"
	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
)

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

)

// DefaultDataDir returns the per-user data directory, falling back to
// ./.drawdoc when the user config directory is unknown.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return ".drawdoc"
	}
	return filepath.Join(base, "drawdoc")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "drawdoc.yaml")
}

// Default returns the default configuration.
func Default() *Config {
	kv := storage.DefaultKVConfig(DefaultDataDir())
	badger, sqlite := kv.Badger, kv.SQLite
	sched := autosave.DefaultSchedulerConfig()
	arch := archive.DefaultConfig()

	return &Config{
		Storage: StorageSection{
			Engine:  kv.Engine,
			DataDir: kv.Dir,
			Badger: BadgerSection{
				GCInterval:       badger.GCInterval,
				GCThreshold:      badger.GCThreshold,
				CacheSize:        badger.CacheSize,
				ValueLogFileSize: badger.ValueLogFileSize,
				NumMemtables:     badger.NumMemtables,
				SyncWrites:       badger.SyncWrites,
			},
			SQLite: SQLiteSection{
				BusyTimeout: sqlite.BusyTimeout,
				Synchronous: sqlite.Synchronous,
			},
		},
		History: HistorySection{
			MaxSize: history.DefaultMaxSize,
		},
		AutoSave: AutoSaveSection{
			Enabled:         true,
			Key:             autosave.DefaultKey,
			MaxAge:          autosave.DefaultMaxAge,
			Debounce:        sched.Debounce,
			Interval:        sched.Interval,
			WritesPerSecond: sched.WritesPerSecond,
			Burst:           sched.Burst,
		},
		Archive: ArchiveSection{
			ThumbnailWidth:    arch.ThumbnailWidth,
			ThumbnailHeight:   arch.ThumbnailHeight,
			ThumbnailRequired: arch.ThumbnailRequired,
			MaxEntryBytes:     arch.MaxEntryBytes,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
