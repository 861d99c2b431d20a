// Package service provides the credential primitives used by the authentication use
// cases: password hashing, refresh token generation, JWT issuing, TOTP and the sealing
// of TOTP secrets at rest.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
)

// PasswordService hashes and verifies user passwords.
type PasswordService interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) bool
}

// RefreshTokenService generates opaque refresh tokens and their storage hashes.
type RefreshTokenService interface {
	Generate() (plainToken string, tokenHash string, err error)
	Hash(plainToken string) string
}

// JWTService issues and verifies signed access and verification tokens.
type JWTService interface {
	IssueAccessToken(user *authDomain.User) (token string, expiresAt time.Time, err error)
	IssueVerificationToken(user *authDomain.User) (token string, expiresAt time.Time, err error)
	ParseAccessToken(token string) (*authDomain.Principal, error)
	ParseVerificationToken(token string) (*authDomain.Principal, error)
}

// TOTPService creates enrollment material and validates one-time codes.
type TOTPService interface {
	Enroll(accountName string) (*authDomain.Enrollment, error)
	Validate(code, secret string) bool
}

// SecretSealer encrypts small per-user secrets before they reach the database.
type SecretSealer interface {
	Seal(ctx context.Context, userID uuid.UUID, plain string) ([]byte, error)
	Open(ctx context.Context, userID uuid.UUID, sealed []byte) (string, error)
}
