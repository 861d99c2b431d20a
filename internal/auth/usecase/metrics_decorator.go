package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/metrics"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *authUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, a.metrics, metrics.DomainAuth, operation, start, err)
}

// Signup records metrics for account creation.
func (a *authUseCaseWithMetrics) Signup(ctx context.Context, input *SignupInput) (*authDomain.User, error) {
	start := time.Now()
	user, err := a.next.Signup(ctx, input)
	a.record(ctx, "signup", start, err)
	return user, err
}

// Login records metrics for the password step.
func (a *authUseCaseWithMetrics) Login(
	ctx context.Context,
	email, password string,
) (*authDomain.LoginResult, error) {
	start := time.Now()
	result, err := a.next.Login(ctx, email, password)
	a.record(ctx, "login", start, err)
	return result, err
}

// CompleteSetup records metrics for first TOTP enrollment.
func (a *authUseCaseWithMetrics) CompleteSetup(
	ctx context.Context,
	verificationToken, code string,
) (*authDomain.Session, error) {
	start := time.Now()
	session, err := a.next.CompleteSetup(ctx, verificationToken, code)
	a.record(ctx, "totp_setup", start, err)
	return session, err
}

// CompleteStepUp records metrics for the TOTP step.
func (a *authUseCaseWithMetrics) CompleteStepUp(
	ctx context.Context,
	verificationToken, email, code string,
) (*authDomain.Session, error) {
	start := time.Now()
	session, err := a.next.CompleteStepUp(ctx, verificationToken, email, code)
	a.record(ctx, "totp_verify", start, err)
	return session, err
}

// Refresh records metrics for access token refresh.
func (a *authUseCaseWithMetrics) Refresh(ctx context.Context, refreshToken string) (string, error) {
	start := time.Now()
	token, err := a.next.Refresh(ctx, refreshToken)
	a.record(ctx, "token_refresh", start, err)
	return token, err
}

// Logout records metrics for refresh token revocation.
func (a *authUseCaseWithMetrics) Logout(ctx context.Context, refreshToken string) error {
	start := time.Now()
	err := a.next.Logout(ctx, refreshToken)
	a.record(ctx, "logout", start, err)
	return err
}

// Authenticate records metrics for access token authentication.
func (a *authUseCaseWithMetrics) Authenticate(ctx context.Context, accessToken string) (*authDomain.User, error) {
	start := time.Now()
	user, err := a.next.Authenticate(ctx, accessToken)
	a.record(ctx, "authenticate", start, err)
	return user, err
}

// AuthenticateVerification passes through without metrics; it is a pure token check.
func (a *authUseCaseWithMetrics) AuthenticateVerification(
	ctx context.Context,
	verificationToken string,
) (*authDomain.Principal, error) {
	return a.next.AuthenticateVerification(ctx, verificationToken)
}

// PurgeExpiredRefreshTokens records metrics for refresh token cleanup.
func (a *authUseCaseWithMetrics) PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	start := time.Now()
	count, err := a.next.PurgeExpiredRefreshTokens(ctx, before)
	a.record(ctx, "refresh_token_purge", start, err)
	return count, err
}
