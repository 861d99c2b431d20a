// Package service implements the file crypto engine and the secrets keeper used to
// seal small server-side secrets at rest.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
)

// AEAD defines authenticated encryption with associated data.
type AEAD interface {
	// Encrypt encrypts plaintext and returns the ciphertext with tag and the nonce used.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt verifies and decrypts ciphertext produced by Encrypt.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// Engine is the file crypto engine. It holds no shared mutable state, so a single value
// can serve concurrent uploads and downloads.
type Engine interface {
	// GenerateKey returns a fresh random 256-bit key.
	GenerateKey() (*cryptoDomain.Key, error)

	// Encrypt seals plaintext under key with a fresh random 96-bit IV.
	Encrypt(plaintext []byte, key *cryptoDomain.Key) (*cryptoDomain.Sealed, error)

	// Decrypt opens ciphertext. A tag mismatch returns ErrAuthenticationFailed.
	Decrypt(ciphertext, iv []byte, key *cryptoDomain.Key) ([]byte, error)

	// SerializeKey encodes key material as standard base64.
	SerializeKey(key *cryptoDomain.Key) string

	// DeserializeKey decodes a key produced by SerializeKey.
	DeserializeKey(encoded string) (*cryptoDomain.Key, error)
}

// Keeper encrypts and decrypts small secrets through a gocloud secrets driver.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KeeperService opens Keepers from driver URLs (base64key://, hashivault://, awskms://, ...).
type KeeperService interface {
	OpenKeeper(ctx context.Context, keeperURL string) (Keeper, error)
}
