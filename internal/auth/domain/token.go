package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is an opaque, long-lived credential stored as a SHA-256 hash.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsActive reports whether the token can still mint access tokens.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Session is the full credential set handed out after both factors succeed.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// LoginResult is the outcome of a successful password check. Exactly one of the
// second-factor branches applies: enrollment when TOTP is not enabled yet, step-up
// otherwise. Both carry a verification token.
type LoginResult struct {
	RequiresSetup     bool
	RequiresTwoFactor bool
	VerificationToken string
	Enrollment        *Enrollment
}

// Enrollment is the material a user needs to register an authenticator app.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	// QRCode is the provisioning URI rendered as a PNG data URI.
	QRCode string
}
