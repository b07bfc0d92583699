// Package adaptive provides authenticated encryption with automatic
// algorithm selection, plus key derivation helpers.
//
// Supported algorithms:
//
//   - AES-GCM: preferred on amd64 and arm64, where Go uses hardware AES
//   - ChaCha20-Poly1305: everywhere else
//
// Ciphertexts carry their random nonce as a prefix, so a sealed value is
// self-contained. Keys come either from raw key material through HKDF or
// from a passphrase through Argon2id with a caller-persisted salt.
//
// Usage:
//
//	key, err := adaptive.DeriveKey(master, "autosave")
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
