package config

import "strings"

// Sanitize returns a copy of the config with secrets masked.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg

	if sanitized.AutoSave.EncryptionKey != "" {
		sanitized.AutoSave.EncryptionKey = maskSecret(sanitized.AutoSave.EncryptionKey)
	}
	if sanitized.AutoSave.Passphrase != "" {
		sanitized.AutoSave.Passphrase = maskSecret(sanitized.AutoSave.Passphrase)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe display.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
