package config

import (
	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/infra/buildinfo"
	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
	"github.com/yndnr/drawdoc/internal/telemetry/logger"
)

// KV returns the storage engine configuration.
func (c *Config) KV() storage.KVConfig {
	return storage.KVConfig{
		Engine: c.Storage.Engine,
		Dir:    c.Storage.DataDir,
		Badger: storage.BadgerConfig{
			GCInterval:       c.Storage.Badger.GCInterval,
			GCThreshold:      c.Storage.Badger.GCThreshold,
			CacheSize:        c.Storage.Badger.CacheSize,
			ValueLogFileSize: c.Storage.Badger.ValueLogFileSize,
			NumMemtables:     c.Storage.Badger.NumMemtables,
			SyncWrites:       c.Storage.Badger.SyncWrites,
		},
		SQLite: storage.SQLiteConfig{
			Path:        c.Storage.SQLite.Path,
			BusyTimeout: c.Storage.SQLite.BusyTimeout,
			Synchronous: c.Storage.SQLite.Synchronous,
		},
	}
}

// ArchiveConfig returns the serializer configuration.
func (c *Config) ArchiveConfig() archive.Config {
	return archive.Config{
		ThumbnailWidth:    c.Archive.ThumbnailWidth,
		ThumbnailHeight:   c.Archive.ThumbnailHeight,
		ThumbnailRequired: c.Archive.ThumbnailRequired,
		MaxEntryBytes:     c.Archive.MaxEntryBytes,
		Generator:         buildinfo.Generator(),
	}
}

// Scheduler returns the auto-save scheduler configuration.
func (c *Config) Scheduler() autosave.SchedulerConfig {
	return autosave.SchedulerConfig{
		Debounce:        c.AutoSave.Debounce,
		Interval:        c.AutoSave.Interval,
		WritesPerSecond: c.AutoSave.WritesPerSecond,
		Burst:           c.AutoSave.Burst,
	}
}

// KeySource returns the auto-save encryption key source.
func (c *Config) KeySource() autosave.KeySource {
	return autosave.KeySource{
		Key:        []byte(c.AutoSave.EncryptionKey),
		Passphrase: []byte(c.AutoSave.Passphrase),
	}
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}
