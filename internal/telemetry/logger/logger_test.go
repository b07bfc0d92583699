package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// keepLevel restores the shared level after a test changes it.
func keepLevel(t *testing.T) {
	t.Helper()
	prev := level.Level()
	t.Cleanup(func() { level.Set(prev) })
}

func decodeLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(b, &entry); err != nil {
		t.Fatalf("decode %q: %v", b, err)
	}
	return entry
}

func TestNew(t *testing.T) {
	keepLevel(t)

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"json", Config{Level: "debug", Format: "json"}, false},
		{"console alias", Config{Level: "warn", Format: "console"}, false},
		{"empty format is json", Config{}, false},
		{"unknown format", Config{Format: "xml"}, true},
		{"unknown level", Config{Level: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestNew_JSONRecord(t *testing.T) {
	keepLevel(t)

	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.With("engine", "badger").Debug("archive packed", "assets", 2)

	entry := decodeLine(t, buf.Bytes())
	if entry["msg"] != "archive packed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["engine"] != "badger" {
		t.Errorf("engine = %v", entry["engine"])
	}
	if entry["assets"] != float64(2) {
		t.Errorf("assets = %v", entry["assets"])
	}
}

func TestNew_TextRecord(t *testing.T) {
	keepLevel(t)

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: FormatText, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("thumbnail unavailable", "component", "archive")

	out := buf.String()
	if !strings.Contains(out, "thumbnail unavailable") || !strings.Contains(out, "component=archive") {
		t.Errorf("text output = %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	keepLevel(t)

	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("debug/info logged at warn level: %s", buf.String())
	}

	l.Warn("warn message")
	if buf.Len() == 0 {
		t.Error("warn message dropped")
	}
}

func TestSetLevel_AppliesToExistingLoggers(t *testing.T) {
	keepLevel(t)

	var buf bytes.Buffer
	l, err := New(Config{Level: "error", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("before")
	if buf.Len() > 0 {
		t.Fatal("info logged at error level")
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	l.Info("after")
	if buf.Len() == 0 {
		t.Error("info dropped after SetLevel(debug)")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}
}

func TestSetLevel_Unknown(t *testing.T) {
	keepLevel(t)

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel(warn) error = %v", err)
	}
	if err := SetLevel("verbose"); err == nil {
		t.Error("SetLevel(verbose) should fail")
	}
	if got := GetLevel(); got != "warn" {
		t.Errorf("GetLevel() = %q, want warn (unchanged)", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_RedactsRecords(t *testing.T) {
	keepLevel(t)

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("node", "src", "data:image/png;base64,AAAABBBB", "passphrase", "hunter2")

	entry := decodeLine(t, buf.Bytes())
	if entry["src"] != "data:image/png;base64,<8 bytes>" {
		t.Errorf("src = %v", entry["src"])
	}
	if entry["passphrase"] != redactedValue {
		t.Errorf("passphrase = %v", entry["passphrase"])
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() logger should not be enabled at error level")
	}
	l.Error("dropped")
}
