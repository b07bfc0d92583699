package autosave

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/pkg/crypto/adaptive"
)

// saltSuffix names the key holding the passphrase salt next to the record.
const saltSuffix = ".salt"

// hkdfInfo binds raw key material to this use.
const hkdfInfo = "drawdoc autosave v1"

// KeySource describes where the at-rest key comes from. Set at most one
// field; an empty KeySource disables encryption.
type KeySource struct {
	// Key is raw key material, stretched with HKDF.
	Key []byte

	// Passphrase is stretched with Argon2id and a salt kept in the engine.
	Passphrase []byte
}

// Enabled reports whether the source configures encryption.
func (k KeySource) Enabled() bool {
	return len(k.Key) > 0 || len(k.Passphrase) > 0
}

// NewCipher builds the record cipher for the record stored under key.
// It returns nil, nil when src is empty. A passphrase salt is created
// and persisted on first use.
func NewCipher(ctx context.Context, engine storage.KVEngine, key string, src KeySource) (adaptive.Cipher, error) {
	if !src.Enabled() {
		return nil, nil
	}
	if len(src.Key) > 0 && len(src.Passphrase) > 0 {
		return nil, errors.New("autosave: set either an encryption key or a passphrase, not both")
	}
	if key == "" {
		key = DefaultKey
	}

	var derived []byte
	var err error
	if len(src.Key) > 0 {
		derived, err = adaptive.DeriveKey(src.Key, hkdfInfo)
	} else {
		var salt []byte
		salt, err = loadOrCreateSalt(ctx, engine, []byte(key+saltSuffix))
		if err != nil {
			return nil, err
		}
		derived, err = adaptive.DeriveKeyFromPassphrase(src.Passphrase, salt)
	}
	if err != nil {
		return nil, fmt.Errorf("autosave: derive key: %w", err)
	}
	defer adaptive.Zero(derived)

	return adaptive.New(derived)
}

func loadOrCreateSalt(ctx context.Context, engine storage.KVEngine, saltKey []byte) ([]byte, error) {
	salt, err := engine.Get(ctx, saltKey)
	if err == nil && len(salt) == adaptive.SaltSize {
		return salt, nil
	}
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("autosave: read salt: %w", err)
	}

	salt, err = adaptive.NewSalt()
	if err != nil {
		return nil, err
	}
	if err := engine.Set(ctx, saltKey, salt); err != nil {
		return nil, fmt.Errorf("autosave: write salt: %w", err)
	}
	if err := engine.Sync(ctx); err != nil {
		return nil, fmt.Errorf("autosave: write salt: %w", err)
	}
	return salt, nil
}
