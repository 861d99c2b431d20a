package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	t.Run("CopiesMaterial", func(t *testing.T) {
		raw := make([]byte, KeySize)
		raw[0] = 7

		key, err := NewKey(raw)
		require.NoError(t, err)

		raw[0] = 9
		assert.Equal(t, byte(7), key.Bytes()[0])
	})

	t.Run("Error_InvalidSize", func(t *testing.T) {
		key, err := NewKey(make([]byte, 16))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, key)
	})

	t.Run("ZeroNilKey", func(t *testing.T) {
		var key *Key
		assert.NotPanics(t, key.Zero)
	})

	t.Run("ZeroWipesMaterial", func(t *testing.T) {
		raw := make([]byte, KeySize)
		for i := range raw {
			raw[i] = 0xAA
		}
		key, err := NewKey(raw)
		require.NoError(t, err)

		material := key.Bytes()
		key.Zero()
		assert.Equal(t, make([]byte, KeySize), material)
	})
}

func TestZero(t *testing.T) {
	buf := []byte("plaintext")
	Zero(buf)
	assert.Equal(t, make([]byte, 9), buf)
	assert.NotPanics(t, func() { Zero(nil) })
}

func TestCiphertextSize(t *testing.T) {
	assert.Equal(t, int64(1040), CiphertextSize(1024))
	assert.Equal(t, int64(TagSize), CiphertextSize(0))
}
