// Package config provides DrawDoc configuration.
//
// This package defines the configuration structure and validation:
//
//   - config.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (engine names, ranges, key material)
//   - sanitize.go: Masking of secrets for display and logs
//   - load.go: Layered loading through internal/infra/confloader
//   - convert.go: Translation into component configs
//   - keys.go: Known keys, for flagging misspelled file entries
//
// Configuration is loaded from defaults, a YAML file, DRAWDOC_*
// environment variables and command-line overrides, in that order.
package config
