package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordService(t *testing.T) {
	service, err := NewPasswordService()
	require.NoError(t, err)

	t.Run("Success_HashAndCompare", func(t *testing.T) {
		hash, err := service.Hash("Str0ng!Pass")
		require.NoError(t, err)
		assert.NotEqual(t, "Str0ng!Pass", hash)

		assert.True(t, service.Compare("Str0ng!Pass", hash))
		assert.False(t, service.Compare("wrong", hash))
	})

	t.Run("Success_UniqueSalts", func(t *testing.T) {
		first, err := service.Hash("Str0ng!Pass")
		require.NoError(t, err)
		second, err := service.Hash("Str0ng!Pass")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("MalformedHash", func(t *testing.T) {
		assert.False(t, service.Compare("Str0ng!Pass", "not-a-hash"))
	})
}
