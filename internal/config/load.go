package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/yndnr/drawdoc/internal/infra/confloader"
)

// Load builds the configuration from defaults, the file at path, the
// environment and overrides, then verifies it. A missing file at the
// default path is not an error; a missing file that was asked for is.
func Load(path string, overrides map[string]any) (*Config, *confloader.Loader, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath()); err == nil {
			path = DefaultConfigPath()
		}
	} else if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("config file %s does not exist", path)
	}

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)

	cfg := Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// Reload re-reads every source into a fresh default config.
func Reload(loader *confloader.Loader) (*Config, error) {
	cfg := Default()
	if err := loader.Reload(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
