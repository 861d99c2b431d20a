package service

import (
	"context"

	"github.com/google/uuid"

	cryptoService "github.com/allisson/filevault/internal/crypto/service"
	apperrors "github.com/allisson/filevault/internal/errors"
)

type keeperSealer struct {
	keeper cryptoService.Keeper
}

// NewSecretSealer creates a SecretSealer backed by a gocloud secrets keeper.
func NewSecretSealer(keeper cryptoService.Keeper) SecretSealer {
	return &keeperSealer{keeper: keeper}
}

// Seal encrypts plain and prefixes it with the owning user id so a sealed value copied to
// another row fails to open.
func (s *keeperSealer) Seal(ctx context.Context, userID uuid.UUID, plain string) ([]byte, error) {
	payload := append(userID[:], []byte(plain)...)
	sealed, err := s.keeper.Encrypt(ctx, payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal secret")
	}
	return sealed, nil
}

// Open decrypts a value produced by Seal for the same user.
func (s *keeperSealer) Open(ctx context.Context, userID uuid.UUID, sealed []byte) (string, error) {
	payload, err := s.keeper.Decrypt(ctx, sealed)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to open secret")
	}
	if len(payload) < len(userID) || uuid.UUID(payload[:len(userID)]) != userID {
		return "", apperrors.New("sealed secret belongs to another user")
	}
	return string(payload[len(userID):]), nil
}
