package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/filevault/internal/crypto/domain"
)

func TestNewAESGCM(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		cipher, err := NewAESGCM(make([]byte, 32))
		require.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("Error_InvalidKeySize", func(t *testing.T) {
		for _, size := range []int{0, 16, 24, 31, 33} {
			cipher, err := NewAESGCM(make([]byte, size))
			assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
			assert.Nil(t, cipher)
		}
	})
}

func TestAESGCMCipher_AAD(t *testing.T) {
	cipher, err := NewAESGCM(randomBytes(t, 32))
	require.NoError(t, err)

	ciphertext, nonce, err := cipher.Encrypt([]byte("totp-secret"), []byte("user-1"))
	require.NoError(t, err)

	plaintext, err := cipher.Decrypt(ciphertext, nonce, []byte("user-1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("totp-secret"), plaintext)

	_, err = cipher.Decrypt(ciphertext, nonce, []byte("user-2"))
	assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
}
