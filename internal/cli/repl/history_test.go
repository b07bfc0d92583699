package repl

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHistory_Add(t *testing.T) {
	h := NewHistory("", 0)
	if h.maxSize != DefaultHistorySize {
		t.Errorf("maxSize = %d, want %d", h.maxSize, DefaultHistorySize)
	}

	h.Add("ls")
	h.Add("ls")
	h.Add("undo")
	h.Add("ls")

	want := []string{"ls", "undo", "ls"}
	if got := h.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory("", 3)
	for _, cmd := range []string{"a", "b", "c", "d"} {
		h.Add(cmd)
	}
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	if h.Get(0) != "d" || h.Get(2) != "b" {
		t.Errorf("Get(0) = %q, Get(2) = %q", h.Get(0), h.Get(2))
	}
	if h.Get(3) != "" || h.Get(-1) != "" {
		t.Error("out of range Get should return empty")
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", HistoryFile)

	h := NewHistory(file, 10)
	h.Add("add rect")
	h.Add("export a.draw")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("history file mode = %v, want 0600", perm)
	}

	loaded := NewHistory(file, 10)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Entries(); !reflect.DeepEqual(got, []string{"add rect", "export a.draw"}) {
		t.Errorf("Entries() = %v", got)
	}
}

func TestHistory_LoadTrims(t *testing.T) {
	file := filepath.Join(t.TempDir(), HistoryFile)
	if err := os.WriteFile(file, []byte("a\n\nb\nc\nd\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(file, 2)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Errorf("Entries() = %v, want [c d]", got)
	}
}

func TestHistory_MissingFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "none"), 10)
	if err := h.Load(); err != nil {
		t.Errorf("Load() of a missing file error = %v", err)
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("", 10)
	h.Add("ls")
	if err := h.Save(); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}
