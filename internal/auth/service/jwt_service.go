package service

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	apperrors "github.com/allisson/filevault/internal/errors"
)

// tokenClaims is the JWT payload for both access and verification tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email     string               `json:"email"`
	Role      authDomain.Role      `json:"role"`
	TokenType authDomain.TokenType `json:"token_type"`
}

// JWTConfig holds the signing secret and token lifetimes.
type JWTConfig struct {
	Secret               []byte
	Issuer               string
	AccessTokenTTL       time.Duration
	VerificationTokenTTL time.Duration
}

type jwtService struct {
	accessKey       []byte
	verificationKey []byte
	config          JWTConfig
	now             func() time.Time
}

// NewJWTService creates a JWTService. Each token type is signed with its own key derived
// from the configured secret through HKDF-SHA256, so a verification token never verifies
// as an access token even if its type claim were altered.
func NewJWTService(config JWTConfig) (JWTService, error) {
	if len(config.Secret) < 32 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "jwt signing secret must be at least 32 bytes")
	}

	accessKey, err := deriveKey(config.Secret, authDomain.AccessTokenType)
	if err != nil {
		return nil, err
	}
	verificationKey, err := deriveKey(config.Secret, authDomain.VerificationTokenType)
	if err != nil {
		return nil, err
	}

	return &jwtService{
		accessKey:       accessKey,
		verificationKey: verificationKey,
		config:          config,
		now:             func() time.Time { return time.Now().UTC() },
	}, nil
}

func deriveKey(secret []byte, tokenType authDomain.TokenType) ([]byte, error) {
	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, secret, nil, []byte("filevault/jwt/"+string(tokenType)))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signing key")
	}
	return key, nil
}

// IssueAccessToken signs a short-lived access token carrying the user's identity and role.
func (s *jwtService) IssueAccessToken(user *authDomain.User) (string, time.Time, error) {
	return s.issue(user, authDomain.AccessTokenType, s.config.AccessTokenTTL, s.accessKey)
}

// IssueVerificationToken signs a token that only authorizes second-factor completion.
func (s *jwtService) IssueVerificationToken(user *authDomain.User) (string, time.Time, error) {
	return s.issue(user, authDomain.VerificationTokenType, s.config.VerificationTokenTTL, s.verificationKey)
}

func (s *jwtService) issue(
	user *authDomain.User,
	tokenType authDomain.TokenType,
	ttl time.Duration,
	key []byte,
) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.Must(uuid.NewV7()).String(),
		},
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies an access token and returns its principal.
func (s *jwtService) ParseAccessToken(token string) (*authDomain.Principal, error) {
	return s.parse(token, authDomain.AccessTokenType, s.accessKey)
}

// ParseVerificationToken verifies a verification token and returns its principal.
func (s *jwtService) ParseVerificationToken(token string) (*authDomain.Principal, error) {
	return s.parse(token, authDomain.VerificationTokenType, s.verificationKey)
}

func (s *jwtService) parse(
	token string,
	tokenType authDomain.TokenType,
	key []byte,
) (*authDomain.Principal, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authDomain.ErrInvalidToken, err)
	}
	if claims.TokenType != tokenType {
		return nil, authDomain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, authDomain.ErrInvalidToken
	}

	return &authDomain.Principal{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
