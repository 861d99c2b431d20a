package domain

// Algorithm represents the cryptographic algorithm used for file encryption.
type Algorithm string

// AESGCM is AES-256 in Galois/Counter Mode: 256-bit key, 96-bit IV and a 128-bit
// authentication tag appended to the ciphertext.
const AESGCM Algorithm = "aes-256-gcm"

const (
	// KeySize is the length in bytes of a file encryption key.
	KeySize = 32

	// IVSize is the length in bytes of the per-encryption initialization vector.
	IVSize = 12

	// TagSize is the length in bytes of the GCM authentication tag.
	TagSize = 16
)

// CiphertextSize returns the ciphertext length produced for a plaintext of the given size.
func CiphertextSize(plaintextSize int64) int64 {
	return plaintextSize + TagSize
}
