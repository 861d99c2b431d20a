package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role determines which operations a user can reach.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
	RoleGuest   Role = "guest"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRegular, RoleGuest:
		return true
	}
	return false
}

// rank orders roles for promotion checks.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleRegular:
		return 2
	case RoleGuest:
		return 1
	}
	return 0
}

// User is an account on the file API server.
//
// TOTPSecret holds the sealed (encrypted) secret, never the plain base32 value.
type User struct {
	ID             uuid.UUID
	Email          string
	Username       string
	PasswordHash   string
	Role           Role
	TOTPSecret     []byte
	TOTPEnabled    bool
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// RegisterFailure counts a failed password or code attempt and locks the account once
// maxAttempts is reached.
func (u *User) RegisterFailure(now time.Time, maxAttempts int, lockout time.Duration) {
	u.FailedAttempts++
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := now.Add(lockout)
		u.LockedUntil = &until
		u.FailedAttempts = 0
	}
}

// ResetFailures clears the lockout counters after a successful step.
func (u *User) ResetFailures() {
	u.FailedAttempts = 0
	u.LockedUntil = nil
}

// Principal is the authenticated identity carried by an access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// Principal returns the identity used for authorization checks.
func (u *User) Principal() *Principal {
	return &Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}
