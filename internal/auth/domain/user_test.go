package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_Lockout(t *testing.T) {
	now := time.Now().UTC()
	user := &User{}

	for i := 0; i < 2; i++ {
		user.RegisterFailure(now, 3, 30*time.Minute)
	}
	assert.False(t, user.IsLocked(now))
	assert.Equal(t, 2, user.FailedAttempts)

	user.RegisterFailure(now, 3, 30*time.Minute)
	assert.True(t, user.IsLocked(now))
	assert.False(t, user.IsLocked(now.Add(31*time.Minute)))

	user.ResetFailures()
	assert.False(t, user.IsLocked(now))
	assert.Zero(t, user.FailedAttempts)
}

func TestRefreshToken_IsActive(t *testing.T) {
	now := time.Now().UTC()
	token := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, token.IsActive(now))
	assert.False(t, token.IsActive(now.Add(2*time.Hour)))

	token.RevokedAt = &now
	assert.False(t, token.IsActive(now))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleRegular.Valid())
	assert.True(t, RoleGuest.Valid())
	assert.False(t, Role("").Valid())
}
