package domain

import (
	"github.com/allisson/filevault/internal/errors"
)

// Cryptographic operation error definitions.
//
// These errors wrap the standard kinds from internal/errors so callers can branch on
// either the precise failure or the broader category.
var (
	// ErrInvalidKeySize indicates key material is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidKey indicates a serialized key could not be decoded.
	ErrInvalidKey = errors.Wrap(errors.ErrInvalidInput, "invalid encryption key encoding")

	// ErrInvalidIV indicates an initialization vector of the wrong length or encoding.
	ErrInvalidIV = errors.Wrap(errors.ErrInvalidInput, "invalid initialization vector")

	// ErrAuthenticationFailed indicates the GCM tag did not verify. The ciphertext was
	// tampered with, or the key or IV is wrong. No plaintext is ever returned with it.
	ErrAuthenticationFailed = errors.New("ciphertext authentication failed")
)
