// Package logger provides structured logging for DrawDoc.
package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"encryption_key",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// inlinePrefix starts every inline asset payload.
const inlinePrefix = "data:"

// maxInlineHead bounds how much of a non-base64 data URI is kept.
const maxInlineHead = 48

// redactSensitive shortens inline payloads and masks secrets.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Payload shortening takes priority over key-based masking.
		if strings.HasPrefix(strVal, inlinePrefix) {
			return slog.String(a.Key, ShortenDataURI(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// ShortenDataURI replaces a data URI's payload with its length.
// Format: data:<mime>;base64,<N bytes>
func ShortenDataURI(value string) string {
	if !strings.HasPrefix(value, inlinePrefix) {
		return value
	}
	header, payload, ok := strings.Cut(value, ",")
	if !ok {
		if len(value) > maxInlineHead {
			return value[:maxInlineHead] + "..."
		}
		return value
	}
	return fmt.Sprintf("%s,<%d bytes>", header, len(payload))
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
