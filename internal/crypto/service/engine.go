package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
)

// FileEngine implements Engine with AES-256-GCM.
type FileEngine struct{}

// NewFileEngine creates the file crypto engine.
func NewFileEngine() *FileEngine {
	return &FileEngine{}
}

// GenerateKey returns 32 bytes from crypto/rand.
func (e *FileEngine) GenerateKey() (*cryptoDomain.Key, error) {
	material := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	defer cryptoDomain.Zero(material)
	return cryptoDomain.NewKey(material)
}

// Encrypt seals plaintext. No AAD is bound; the file id does not exist yet when the
// ciphertext is produced.
func (e *FileEngine) Encrypt(plaintext []byte, key *cryptoDomain.Key) (*cryptoDomain.Sealed, error) {
	if key == nil {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	cipher, err := NewAESGCM(key.Bytes())
	if err != nil {
		return nil, err
	}
	ciphertext, iv, err := cipher.Encrypt(plaintext, nil)
	if err != nil {
		return nil, err
	}
	return &cryptoDomain.Sealed{Ciphertext: ciphertext, IV: iv}, nil
}

// Decrypt opens ciphertext sealed by Encrypt.
func (e *FileEngine) Decrypt(ciphertext, iv []byte, key *cryptoDomain.Key) ([]byte, error) {
	if key == nil {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	if len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrInvalidIV
	}
	cipher, err := NewAESGCM(key.Bytes())
	if err != nil {
		return nil, err
	}
	return cipher.Decrypt(ciphertext, iv, nil)
}

// SerializeKey encodes key material as standard base64, the custodian wire format.
func (e *FileEngine) SerializeKey(key *cryptoDomain.Key) string {
	return base64.StdEncoding.EncodeToString(key.Bytes())
}

// DeserializeKey decodes standard base64 into a Key. Bad encoding and a wrong length
// both match ErrInvalidKey.
func (e *FileEngine) DeserializeKey(encoded string) (*cryptoDomain.Key, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKey
	}
	defer cryptoDomain.Zero(raw)
	if len(raw) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: %w", cryptoDomain.ErrInvalidKey, cryptoDomain.ErrInvalidKeySize)
	}
	return cryptoDomain.NewKey(raw)
}

// EncodeIV encodes an IV for the file metadata field.
func EncodeIV(iv []byte) string {
	return base64.StdEncoding.EncodeToString(iv)
}

// DecodeIV decodes an IV from file metadata and checks its length.
func DecodeIV(encoded string) ([]byte, error) {
	iv, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrInvalidIV
	}
	return iv, nil
}
