package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/filevault/internal/errors"
)

type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// Hash returns the PHC-formatted hash of a password.
func (s *passwordService) Hash(plain string) (string, error) {
	hash, err := s.hasher.Hash([]byte(plain))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

// Compare reports whether plain matches hash. Malformed hashes never match.
func (s *passwordService) Compare(plain, hash string) bool {
	ok, err := s.hasher.Verify([]byte(plain), hash)
	if err != nil {
		return false
	}
	return ok
}

// NewPasswordService creates a PasswordService using the interactive policy, tuned for
// login latency rather than long-term machine secrets.
func NewPasswordService() (PasswordService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}
	return &passwordService{hasher: hasher}, nil
}
