package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/filevault/internal/errors"
)

type refreshTokenService struct{}

// Generate returns 32 random bytes encoded as base64url, and the SHA-256 hex digest
// that is stored instead of the token.
func (r *refreshTokenService) Generate() (plainToken string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate refresh token")
	}

	plainToken = base64.RawURLEncoding.EncodeToString(randomBytes)
	return plainToken, r.Hash(plainToken), nil
}

// Hash returns the SHA-256 hex digest of a refresh token.
func (r *refreshTokenService) Hash(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}

// NewRefreshTokenService creates a RefreshTokenService.
func NewRefreshTokenService() RefreshTokenService {
	return &refreshTokenService{}
}
