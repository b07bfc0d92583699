package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
)

func testDefault(t *testing.T) *Config {
	t.Helper()
	cfg := Default()
	cfg.Storage.DataDir = t.TempDir()
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Storage.Engine != storage.EngineBadger {
		t.Errorf("Engine = %q, want badger", cfg.Storage.Engine)
	}
	if cfg.History.MaxSize != 30 {
		t.Errorf("History.MaxSize = %d, want 30", cfg.History.MaxSize)
	}
	if cfg.AutoSave.Key != "canvas.autoSave" || cfg.AutoSave.MaxAge != 7*24*time.Hour {
		t.Errorf("AutoSave = %+v", cfg.AutoSave)
	}
	if cfg.AutoSave.Debounce != time.Second || cfg.AutoSave.Interval != 30*time.Second {
		t.Errorf("AutoSave timers = %v / %v", cfg.AutoSave.Debounce, cfg.AutoSave.Interval)
	}
	if cfg.Archive.ThumbnailWidth != 200 || cfg.Archive.ThumbnailHeight != 150 || cfg.Archive.ThumbnailRequired {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"memory needs no dir", func(c *Config) { c.Storage.Engine = storage.EngineMemory; c.Storage.DataDir = "" }, ""},
		{"unknown engine", func(c *Config) { c.Storage.Engine = "redis" }, "storage.engine"},
		{"empty dir", func(c *Config) { c.Storage.DataDir = "" }, "data_dir"},
		{"gc threshold", func(c *Config) { c.Storage.Badger.GCThreshold = 1.5 }, "gc_threshold"},
		{"sqlite synchronous", func(c *Config) {
			c.Storage.Engine = storage.EngineSQLite
			c.Storage.SQLite.Synchronous = "sometimes"
		}, "synchronous"},
		{"sqlite synchronous lower case", func(c *Config) {
			c.Storage.Engine = storage.EngineSQLite
			c.Storage.SQLite.Synchronous = "full"
		}, ""},
		{"history size", func(c *Config) { c.History.MaxSize = 0 }, "history.max_size"},
		{"max age", func(c *Config) { c.AutoSave.MaxAge = 0 }, "max_age"},
		{"interval", func(c *Config) { c.AutoSave.Interval = time.Millisecond }, "interval"},
		{"disabled autosave skips checks", func(c *Config) { c.AutoSave.Enabled = false; c.AutoSave.MaxAge = 0 }, ""},
		{"key and passphrase", func(c *Config) {
			c.AutoSave.EncryptionKey = "0123456789abcdef"
			c.AutoSave.Passphrase = "long passphrase"
		}, "mutually exclusive"},
		{"short key", func(c *Config) { c.AutoSave.EncryptionKey = "short" }, "encryption_key"},
		{"short passphrase", func(c *Config) { c.AutoSave.Passphrase = "short" }, "passphrase"},
		{"thumbnail size", func(c *Config) { c.Archive.ThumbnailWidth = 0 }, "thumbnail"},
		{"entry cap", func(c *Config) { c.Archive.MaxEntryBytes = 0 }, "max_entry_bytes"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testDefault(t)
			tt.mutate(cfg)
			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.AutoSave.EncryptionKey = "super-secret-key-1234567890"
	cfg.AutoSave.Passphrase = "abc"

	sanitized := Sanitize(cfg)

	if cfg.AutoSave.EncryptionKey != "super-secret-key-1234567890" {
		t.Error("Sanitize() modified the original")
	}
	if got := sanitized.AutoSave.EncryptionKey; got != "su***********************90" {
		t.Errorf("EncryptionKey = %q", got)
	}
	if got := sanitized.AutoSave.Passphrase; got != "****" {
		t.Errorf("Passphrase = %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drawdoc.yaml")
	content := `
storage:
  engine: sqlite
  data_dir: ` + filepath.Join(dir, "data") + `
autosave:
  max_age: 24h
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, loader, err := Load(path, map[string]any{"history.max_size": 10})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Engine != storage.EngineSQLite || cfg.AutoSave.MaxAge != 24*time.Hour {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.History.MaxSize != 10 {
		t.Errorf("override not applied: MaxSize = %d", cfg.History.MaxSize)
	}
	if cfg.AutoSave.Debounce != time.Second {
		t.Errorf("default lost: Debounce = %v", cfg.AutoSave.Debounce)
	}
	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		t.Errorf("data dir not created: %v", err)
	}

	if err := os.WriteFile(path, []byte(content+"  format: json\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	again, err := Reload(loader)
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if again.Log.Format != "json" || again.History.MaxSize != 10 {
		t.Errorf("Reload() = %+v", again.Log)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("Load() of a missing explicit file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("storage:\n  engine: tape\n"), 0644)
	if _, _, err := Load(path, nil); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Load() error = %v, want invalid configuration", err)
	}
}

func TestKnownKeys(t *testing.T) {
	keys := KnownKeys()
	for _, want := range []string{"storage", "storage.badger.gc_interval", "autosave.max_age", "log.level"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("KnownKeys() is missing %q", want)
		}
	}
}

func TestUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drawdoc.yaml")
	content := "storage:\n  data_dir: " + filepath.Join(dir, "data") + "\n  engnie: memory\nhistroy:\n  max_size: 3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, loader, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	unknown, err := UnknownKeys(loader)
	if err != nil {
		t.Fatalf("UnknownKeys() error = %v", err)
	}
	if strings.Join(unknown, ",") != "histroy.max_size,storage.engnie" {
		t.Errorf("UnknownKeys() = %v", unknown)
	}
}

func TestConversions(t *testing.T) {
	cfg := testDefault(t)
	cfg.Storage.SQLite.Path = "/tmp/x.db"
	cfg.AutoSave.Passphrase = "correct horse"

	kv := cfg.KV()
	if kv.Engine != cfg.Storage.Engine || kv.Dir != cfg.Storage.DataDir || kv.SQLite.Path != "/tmp/x.db" {
		t.Errorf("KV() = %+v", kv)
	}
	if kv.Badger != storage.DefaultBadgerConfig() {
		t.Errorf("KV().Badger = %+v, want defaults", kv.Badger)
	}

	arch := cfg.ArchiveConfig()
	if arch.ThumbnailWidth != 200 || !strings.HasPrefix(arch.Generator, "drawdoc/") {
		t.Errorf("ArchiveConfig() = %+v", arch)
	}

	sc := cfg.Scheduler()
	if sc.Debounce != autosave.DefaultDebounce || sc.Interval != autosave.DefaultInterval {
		t.Errorf("Scheduler() = %+v", sc)
	}

	ks := cfg.KeySource()
	if !ks.Enabled() || len(ks.Key) != 0 {
		t.Errorf("KeySource() = %+v", ks)
	}

	if lc := cfg.Logger(); lc.Level != cfg.Log.Level || lc.Format != cfg.Log.Format {
		t.Errorf("Logger() = %+v", lc)
	}
}
