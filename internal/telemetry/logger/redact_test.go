package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) *slog.Logger {
	t.Helper()
	l, err := New(Config{Level: "info", Format: "json", Output: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestRedactSensitive_DataURI(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	src := "data:image/png;base64," + strings.Repeat("A", 4096)
	l.Info("asset skipped", "src", src)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	got, _ := logEntry["src"].(string)
	if got != "data:image/png;base64,<4096 bytes>" {
		t.Errorf("src = %q", got)
	}
}

func TestRedactSensitive_SecretKeys(t *testing.T) {
	tests := []struct {
		key    string
		value  string
		masked bool
	}{
		{"passphrase", "hunter2", true},
		{"encryption_key", "0011223344", true},
		{"client_secret", "abc", true},
		{"passphrase", "", false},
		{"store_key", "canvas.autoSave", false},
		{"path", "/tmp/a.draw", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			var buf bytes.Buffer
			l := newJSONLogger(t, &buf)
			l.Info("msg", tt.key, tt.value)

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}
			got := logEntry[tt.key]
			if tt.masked && got != redactedValue {
				t.Errorf("%s = %v, want redacted", tt.key, got)
			}
			if !tt.masked && got != tt.value {
				t.Errorf("%s = %v, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("autosave", slog.String("passphrase", "pw"), slog.String("key", "canvas.autoSave"))
	out := redactSensitive(a)

	attrs := out.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("nested passphrase = %q", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "canvas.autoSave" {
		t.Errorf("nested key = %q", attrs[1].Value.String())
	}
}

func TestShortenDataURI(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"data:image/jpeg;base64,AAAA", "data:image/jpeg;base64,<4 bytes>"},
		{"https://example.com/a.png", "https://example.com/a.png"},
		{"data:short", "data:short"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ShortenDataURI(tt.input); got != tt.want {
				t.Errorf("ShortenDataURI() = %q, want %q", got, tt.want)
			}
		})
	}
}
