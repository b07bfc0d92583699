package config

import "time"

// Config is the root DrawDoc configuration.
type Config struct {
	Storage  StorageSection  `koanf:"storage" yaml:"storage" json:"storage"`
	History  HistorySection  `koanf:"history" yaml:"history" json:"history"`
	AutoSave AutoSaveSection `koanf:"autosave" yaml:"autosave" json:"autosave"`
	Archive  ArchiveSection  `koanf:"archive" yaml:"archive" json:"archive"`
	Log      LogSection      `koanf:"log" yaml:"log" json:"log"`
}

// StorageSection selects and tunes the key-value engine.
type StorageSection struct {
	// Engine is badger, sqlite or memory.
	Engine  string        `koanf:"engine" yaml:"engine" json:"engine"`
	DataDir string        `koanf:"data_dir" yaml:"data_dir" json:"data_dir"`
	Badger  BadgerSection `koanf:"badger" yaml:"badger" json:"badger"`
	SQLite  SQLiteSection `koanf:"sqlite" yaml:"sqlite" json:"sqlite"`
}

// BadgerSection tunes the badger engine.
type BadgerSection struct {
	GCInterval       time.Duration `koanf:"gc_interval" yaml:"gc_interval" json:"gc_interval"`
	GCThreshold      float64       `koanf:"gc_threshold" yaml:"gc_threshold" json:"gc_threshold"`
	CacheSize        int64         `koanf:"cache_size" yaml:"cache_size" json:"cache_size"`
	ValueLogFileSize int64         `koanf:"value_log_file_size" yaml:"value_log_file_size" json:"value_log_file_size"`
	NumMemtables     int           `koanf:"num_memtables" yaml:"num_memtables" json:"num_memtables"`
	SyncWrites       bool          `koanf:"sync_writes" yaml:"sync_writes" json:"sync_writes"`
}

// SQLiteSection tunes the sqlite engine.
type SQLiteSection struct {
	// Path defaults to <data_dir>/canvas.db.
	Path        string        `koanf:"path" yaml:"path" json:"path"`
	BusyTimeout time.Duration `koanf:"busy_timeout" yaml:"busy_timeout" json:"busy_timeout"`
	Synchronous string        `koanf:"synchronous" yaml:"synchronous" json:"synchronous"`
}

// HistorySection configures the undo history.
type HistorySection struct {
	MaxSize int `koanf:"max_size" yaml:"max_size" json:"max_size"`
}

// AutoSaveSection configures crash recovery.
type AutoSaveSection struct {
	Enabled         bool          `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Key             string        `koanf:"key" yaml:"key" json:"key"`
	MaxAge          time.Duration `koanf:"max_age" yaml:"max_age" json:"max_age"`
	Debounce        time.Duration `koanf:"debounce" yaml:"debounce" json:"debounce"`
	Interval        time.Duration `koanf:"interval" yaml:"interval" json:"interval"`
	WritesPerSecond float64       `koanf:"writes_per_second" yaml:"writes_per_second" json:"writes_per_second"`
	Burst           int           `koanf:"burst" yaml:"burst" json:"burst"`

	// At most one of EncryptionKey and Passphrase may be set.
	EncryptionKey string `koanf:"encryption_key" yaml:"encryption_key" json:"encryption_key"`
	Passphrase    string `koanf:"passphrase" yaml:"passphrase" json:"passphrase"`
}

// ArchiveSection configures .draw packing.
type ArchiveSection struct {
	ThumbnailWidth    int   `koanf:"thumbnail_width" yaml:"thumbnail_width" json:"thumbnail_width"`
	ThumbnailHeight   int   `koanf:"thumbnail_height" yaml:"thumbnail_height" json:"thumbnail_height"`
	ThumbnailRequired bool  `koanf:"thumbnail_required" yaml:"thumbnail_required" json:"thumbnail_required"`
	MaxEntryBytes     int64 `koanf:"max_entry_bytes" yaml:"max_entry_bytes" json:"max_entry_bytes"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}
