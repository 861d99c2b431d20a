package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authService "github.com/allisson/filevault/internal/auth/service"
	"github.com/allisson/filevault/internal/config"
	"github.com/allisson/filevault/internal/database"
)

type authUseCase struct {
	config              *config.Config
	txManager           database.TxManager
	userRepo            UserRepository
	refreshTokenRepo    RefreshTokenRepository
	passwordService     authService.PasswordService
	refreshTokenService authService.RefreshTokenService
	jwtService          authService.JWTService
	totpService         authService.TOTPService
	secretSealer        authService.SecretSealer
	now                 func() time.Time
}

// Signup creates a guest account after validating the input and hashing the password.
func (a *authUseCase) Signup(ctx context.Context, input *SignupInput) (*authDomain.User, error) {
	return createUser(ctx, a.userRepo, a.passwordService, input, authDomain.RoleGuest)
}

// Login verifies the password and returns the second-factor challenge.
//
// Steps:
//  1. Look up the user by normalized email; unknown emails return ErrInvalidCredentials
//  2. Reject locked accounts
//  3. Verify the password, counting failures toward the lockout
//  4. Issue a verification token
//  5. Without an enabled TOTP factor, generate and seal a fresh enrollment secret
func (a *authUseCase) Login(ctx context.Context, email, password string) (*authDomain.LoginResult, error) {
	user, err := a.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := a.now()
	if user.IsLocked(now) {
		return nil, authDomain.ErrAccountLocked
	}

	if !a.passwordService.Compare(password, user.PasswordHash) {
		if err := a.registerFailure(ctx, user, now); err != nil {
			return nil, err
		}
		return nil, authDomain.ErrInvalidCredentials
	}

	verificationToken, _, err := a.jwtService.IssueVerificationToken(user)
	if err != nil {
		return nil, err
	}

	if user.TOTPEnabled {
		return &authDomain.LoginResult{
			RequiresTwoFactor: true,
			VerificationToken: verificationToken,
		}, nil
	}

	enrollment, err := a.totpService.Enroll(user.Email)
	if err != nil {
		return nil, err
	}
	sealed, err := a.secretSealer.Seal(ctx, user.ID, enrollment.Secret)
	if err != nil {
		return nil, err
	}
	user.TOTPSecret = sealed
	user.UpdatedAt = now
	if err := a.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &authDomain.LoginResult{
		RequiresSetup:     true,
		VerificationToken: verificationToken,
		Enrollment:        enrollment,
	}, nil
}

// CompleteSetup confirms the pending TOTP enrollment with a code and issues a session.
func (a *authUseCase) CompleteSetup(
	ctx context.Context,
	verificationToken, code string,
) (*authDomain.Session, error) {
	user, err := a.userForVerification(ctx, verificationToken)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled || len(user.TOTPSecret) == 0 {
		return nil, authDomain.ErrSecondFactorNotPending
	}

	if err := a.checkCode(ctx, user, code); err != nil {
		return nil, err
	}

	user.TOTPEnabled = true
	return a.startSession(ctx, user)
}

// CompleteStepUp validates a TOTP code for an enrolled user and issues a session. The
// email must match the subject of the verification token.
func (a *authUseCase) CompleteStepUp(
	ctx context.Context,
	verificationToken, email, code string,
) (*authDomain.Session, error) {
	user, err := a.userForVerification(ctx, verificationToken)
	if err != nil {
		return nil, err
	}
	if user.Email != normalizeEmail(email) {
		return nil, authDomain.ErrInvalidToken
	}
	if !user.TOTPEnabled {
		return nil, authDomain.ErrSecondFactorNotPending
	}

	if err := a.checkCode(ctx, user, code); err != nil {
		return nil, err
	}

	return a.startSession(ctx, user)
}

// Refresh returns a new access token for an active refresh token.
func (a *authUseCase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	token, err := a.refreshTokenRepo.GetByTokenHash(ctx, a.refreshTokenService.Hash(refreshToken))
	if err != nil {
		if errors.Is(err, authDomain.ErrRefreshTokenNotFound) {
			return "", authDomain.ErrInvalidToken
		}
		return "", err
	}

	now := a.now()
	if !token.IsActive(now) {
		return "", authDomain.ErrInvalidToken
	}

	user, err := a.userRepo.Get(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			return "", authDomain.ErrInvalidToken
		}
		return "", err
	}
	if user.IsLocked(now) {
		return "", authDomain.ErrAccountLocked
	}

	accessToken, _, err := a.jwtService.IssueAccessToken(user)
	if err != nil {
		return "", err
	}
	return accessToken, nil
}

// Logout revokes the refresh token if it exists and is still active.
func (a *authUseCase) Logout(ctx context.Context, refreshToken string) error {
	token, err := a.refreshTokenRepo.GetByTokenHash(ctx, a.refreshTokenService.Hash(refreshToken))
	if err != nil {
		if errors.Is(err, authDomain.ErrRefreshTokenNotFound) {
			return nil
		}
		return err
	}
	if token.RevokedAt != nil {
		return nil
	}
	return a.refreshTokenRepo.Revoke(ctx, token.ID, a.now())
}

// Authenticate verifies an access token and loads the current user so role changes and
// deletions take effect immediately.
func (a *authUseCase) Authenticate(ctx context.Context, accessToken string) (*authDomain.User, error) {
	principal, err := a.jwtService.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := a.userRepo.Get(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// AuthenticateVerification verifies a verification token.
func (a *authUseCase) AuthenticateVerification(
	ctx context.Context,
	verificationToken string,
) (*authDomain.Principal, error) {
	return a.jwtService.ParseVerificationToken(verificationToken)
}

// PurgeExpiredRefreshTokens deletes refresh tokens that expired before the cutoff.
func (a *authUseCase) PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	return a.refreshTokenRepo.DeleteExpired(ctx, before)
}

func (a *authUseCase) userForVerification(ctx context.Context, verificationToken string) (*authDomain.User, error) {
	principal, err := a.jwtService.ParseVerificationToken(verificationToken)
	if err != nil {
		return nil, err
	}

	user, err := a.userRepo.Get(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, err
	}
	if user.IsLocked(a.now()) {
		return nil, authDomain.ErrAccountLocked
	}
	return user, nil
}

// checkCode validates a TOTP code. A wrong code counts toward the lockout and leaves the
// verification token untouched.
func (a *authUseCase) checkCode(ctx context.Context, user *authDomain.User, code string) error {
	secret, err := a.secretSealer.Open(ctx, user.ID, user.TOTPSecret)
	if err != nil {
		return err
	}
	if !a.totpService.Validate(code, secret) {
		if err := a.registerFailure(ctx, user, a.now()); err != nil {
			return err
		}
		return authDomain.ErrInvalidCredentials
	}
	return nil
}

func (a *authUseCase) registerFailure(ctx context.Context, user *authDomain.User, now time.Time) error {
	user.RegisterFailure(now, a.config.LockoutMaxAttempts, a.config.LockoutDuration)
	user.UpdatedAt = now
	return a.userRepo.Update(ctx, user)
}

// startSession resets the failure counters and issues an access and refresh token pair
// in a single transaction.
func (a *authUseCase) startSession(ctx context.Context, user *authDomain.User) (*authDomain.Session, error) {
	accessToken, _, err := a.jwtService.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	plainRefresh, refreshHash, err := a.refreshTokenService.Generate()
	if err != nil {
		return nil, err
	}

	now := a.now()
	user.ResetFailures()
	user.UpdatedAt = now

	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := a.userRepo.Update(ctx, user); err != nil {
			return err
		}
		return a.refreshTokenRepo.Create(ctx, &authDomain.RefreshToken{
			ID:        uuid.Must(uuid.NewV7()),
			UserID:    user.ID,
			TokenHash: refreshHash,
			ExpiresAt: now.Add(a.config.AuthRefreshTokenExpiration),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	return &authDomain.Session{
		AccessToken:  accessToken,
		RefreshToken: plainRefresh,
		User:         user,
	}, nil
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	userRepo UserRepository,
	refreshTokenRepo RefreshTokenRepository,
	passwordService authService.PasswordService,
	refreshTokenService authService.RefreshTokenService,
	jwtService authService.JWTService,
	totpService authService.TOTPService,
	secretSealer authService.SecretSealer,
) AuthUseCase {
	return &authUseCase{
		config:              cfg,
		txManager:           txManager,
		userRepo:            userRepo,
		refreshTokenRepo:    refreshTokenRepo,
		passwordService:     passwordService,
		refreshTokenService: refreshTokenService,
		jwtService:          jwtService,
		totpService:         totpService,
		secretSealer:        secretSealer,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}
