// Package usecase implements the authentication business logic: signup, the two-step
// login with mandatory TOTP, token refresh and revocation, and user administration.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *authDomain.User) error
	Update(ctx context.Context, user *authDomain.User) error
	Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)
	GetByEmail(ctx context.Context, email string) (*authDomain.User, error)
	List(ctx context.Context, offset, limit int) ([]*authDomain.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// RefreshTokenRepository defines persistence operations for refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *authDomain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.RefreshToken, error)
	Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SignupInput contains the data for creating an account.
type SignupInput struct {
	Email    string
	Username string
	Password string
}

// AuthUseCase defines the login state machine and session operations.
type AuthUseCase interface {
	// Signup creates a guest account.
	Signup(ctx context.Context, input *SignupInput) (*authDomain.User, error)

	// Login checks the password and starts the second-factor step. It never returns a
	// session directly.
	Login(ctx context.Context, email, password string) (*authDomain.LoginResult, error)

	// CompleteSetup confirms a first TOTP enrollment and issues a session.
	CompleteSetup(ctx context.Context, verificationToken, code string) (*authDomain.Session, error)

	// CompleteStepUp validates a TOTP code for an enrolled user and issues a session.
	CompleteStepUp(ctx context.Context, verificationToken, email, code string) (*authDomain.Session, error)

	// Refresh mints a new access token from an active refresh token.
	Refresh(ctx context.Context, refreshToken string) (string, error)

	// Logout revokes a refresh token. Unknown tokens are ignored.
	Logout(ctx context.Context, refreshToken string) error

	// Authenticate resolves an access token to the current user record.
	Authenticate(ctx context.Context, accessToken string) (*authDomain.User, error)

	// AuthenticateVerification resolves a verification token to its principal.
	AuthenticateVerification(ctx context.Context, verificationToken string) (*authDomain.Principal, error)

	// PurgeExpiredRefreshTokens deletes refresh tokens that expired before the cutoff.
	PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// UserUseCase defines user administration operations.
type UserUseCase interface {
	Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)
	List(ctx context.Context, offset, limit int) ([]*authDomain.User, error)
	ChangeRole(ctx context.Context, userID uuid.UUID, role authDomain.Role) (*authDomain.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	CreateAdmin(ctx context.Context, input *SignupInput) (*authDomain.User, error)
}
