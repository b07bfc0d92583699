package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/pkg/crypto/adaptive"
)

// minInterval keeps the interval timer from spinning.
const minInterval = time.Second

var sqliteSynchronous = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}

// Verify validates the configuration and creates the data directory for
// on-disk engines.
func Verify(cfg *Config) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if cfg.History.MaxSize < 1 {
		return errors.New("history.max_size must be at least 1")
	}
	if err := verifyAutoSave(&cfg.AutoSave); err != nil {
		return err
	}
	if err := verifyArchive(&cfg.Archive); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case storage.EngineBadger, storage.EngineSQLite:
	case storage.EngineMemory:
		return nil
	default:
		return fmt.Errorf("storage.engine %q is not one of badger, sqlite, memory", cfg.Engine)
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}

	if cfg.Engine == storage.EngineBadger {
		if t := cfg.Badger.GCThreshold; t <= 0 || t >= 1 {
			return errors.New("storage.badger.gc_threshold must be between 0 and 1")
		}
	}
	if cfg.Engine == storage.EngineSQLite && !sqliteSynchronous[strings.ToUpper(cfg.SQLite.Synchronous)] {
		return fmt.Errorf("storage.sqlite.synchronous %q is not one of OFF, NORMAL, FULL, EXTRA", cfg.SQLite.Synchronous)
	}
	return nil
}

func verifyAutoSave(cfg *AutoSaveSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Key == "" {
		return errors.New("autosave.key is required")
	}
	if cfg.MaxAge <= 0 {
		return errors.New("autosave.max_age must be positive")
	}
	if cfg.Debounce <= 0 {
		return errors.New("autosave.debounce must be positive")
	}
	if cfg.Interval < minInterval {
		return fmt.Errorf("autosave.interval must be at least %s", minInterval)
	}
	if cfg.WritesPerSecond < 0 {
		return errors.New("autosave.writes_per_second must not be negative")
	}
	if cfg.EncryptionKey != "" && cfg.Passphrase != "" {
		return errors.New("autosave.encryption_key and autosave.passphrase are mutually exclusive")
	}
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) < adaptive.MinKeyMaterial {
		return fmt.Errorf("autosave.encryption_key must be at least %d bytes", adaptive.MinKeyMaterial)
	}
	if cfg.Passphrase != "" && len(cfg.Passphrase) < adaptive.MinPassphraseLength {
		return fmt.Errorf("autosave.passphrase must be at least %d characters", adaptive.MinPassphraseLength)
	}
	return nil
}

func verifyArchive(cfg *ArchiveSection) error {
	if cfg.ThumbnailWidth < 1 || cfg.ThumbnailHeight < 1 {
		return errors.New("archive thumbnail size must be positive")
	}
	if cfg.MaxEntryBytes < 1 {
		return errors.New("archive.max_entry_bytes must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
