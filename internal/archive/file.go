package archive

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadFile reads an archive from disk, rejecting names that do not look
// like a document.
func ReadFile(path string) ([]byte, error) {
	if !IsValidContainer(path, "") {
		return nil, fmt.Errorf("archive: %s is not a %s file", path, Extension)
	}
	return os.ReadFile(path)
}

// WriteFile writes an archive next to path under a temporary name, syncs
// it and renames it into place, so a crash never leaves a torn file.
func WriteFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".drawdoc-*.tmp")
	if err != nil {
		return fmt.Errorf("archive: create temp: %w", err)
	}
	tempPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("archive: write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("archive: sync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("archive: close: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("archive: chmod: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("archive: rename: %w", err)
	}
	return nil
}
