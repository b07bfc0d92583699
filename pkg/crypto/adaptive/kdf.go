package adaptive

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// Key derivation errors.
var (
	ErrKeyTooShort       = errors.New("adaptive: key material too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("adaptive: passphrase too short (minimum 8 characters)")
	ErrBadSalt           = errors.New("adaptive: salt must be 16 bytes")
)

const (
	// KeySize is the size of every derived key.
	KeySize = 32

	// MinKeyMaterial is the minimum raw key length accepted by DeriveKey.
	MinKeyMaterial = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltSize is the salt length for passphrase derivation.
	SaltSize = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// DeriveKey expands raw key material into a KeySize key bound to info
// using HKDF-SHA256.
func DeriveKey(material []byte, info string) ([]byte, error) {
	if len(material) < MinKeyMaterial {
		return nil, ErrKeyTooShort
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("adaptive: derive key: %w", err)
	}
	return key, nil
}

// DeriveKeyFromPassphrase derives a KeySize key with Argon2id. The same
// passphrase and salt always produce the same key, so the salt must be
// persisted next to whatever the key protects.
func DeriveKeyFromPassphrase(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	if len(salt) != SaltSize {
		return nil, ErrBadSalt
	}
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, KeySize), nil
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("adaptive: salt: %w", err)
	}
	return salt, nil
}

// Zero overwrites key material in place.
func Zero(b []byte) {
	clear(b)
}
