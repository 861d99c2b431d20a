// Package session owns the client's authentication state machine. It holds the
// verification token between the password step and the second factor, keeps the
// access token fresh, and persists the access and refresh tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	"github.com/allisson/filevault/internal/client/api"
	apperrors "github.com/allisson/filevault/internal/errors"
)

// State is a Session Manager state.
type State string

const (
	StateAnonymous                State = "anonymous"
	StateAwaitingCredentials      State = "awaiting_credentials"
	StatePendingSecondFactor      State = "pending_second_factor"
	StatePendingSecondFactorSetup State = "pending_second_factor_setup"
	StateAuthenticated            State = "authenticated"
)

var (
	// ErrAuthenticationFailed is returned for a wrong password or a wrong second-factor code.
	ErrAuthenticationFailed = apperrors.Wrap(apperrors.ErrUnauthorized, "authentication failed")

	// ErrReauthenticationRequired is returned when there is no usable session.
	ErrReauthenticationRequired = apperrors.Wrap(apperrors.ErrUnauthorized, "session expired, log in again")

	// ErrVerificationExpired is returned when the second factor arrives after the
	// verification token expired. The manager is back to awaiting credentials.
	ErrVerificationExpired = apperrors.Wrap(apperrors.ErrUnauthorized, "verification expired, log in again")

	// ErrInvalidState is returned for an operation the current state does not accept.
	ErrInvalidState = errors.New("operation not valid in the current session state")
)

// AuthAPI is the subset of the file API the manager drives.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	VerifySecondFactor(ctx context.Context, verificationToken, code string) (*api.Session, error)
	LoginVerifySecondFactor(ctx context.Context, verificationToken, email, code string) (*api.Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, accessToken string) (*api.User, error)
}

// LoginOutcome is one of *Authenticated, *StepUpRequired or *SetupRequired.
type LoginOutcome interface {
	isLoginOutcome()
}

// Authenticated means the session is established.
type Authenticated struct {
	User *api.User
}

// StepUpRequired means a TOTP code must be passed to CompleteSecondFactor.
type StepUpRequired struct{}

// SetupRequired means the user must enroll the shown secret, then pass the first code
// to CompleteSecondFactor.
type SetupRequired struct {
	Enrollment api.Enrollment
}

func (*Authenticated) isLoginOutcome()  {}
func (*StepUpRequired) isLoginOutcome() {}
func (*SetupRequired) isLoginOutcome()  {}

// Config holds Session Manager configuration.
type Config struct {
	// RefreshGuard is how long before expiry an access token is refreshed.
	RefreshGuard time.Duration
}

// Manager implements the session state machine. It is safe for concurrent use and is
// the transport.TokenSource of every protected call.
type Manager struct {
	auth   AuthAPI
	store  TokenStore
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu                sync.Mutex
	state             State
	accessToken       string
	refreshToken      string
	verificationToken string
	pendingEmail      string
	user              *api.User

	refreshGroup singleflight.Group
}

// NewManager creates a Manager in the Anonymous state.
func NewManager(auth AuthAPI, store TokenStore, config Config, logger *slog.Logger) *Manager {
	return &Manager{
		auth:   auth,
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
		state:  StateAnonymous,
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the authenticated user, or nil.
func (m *Manager) User() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return nil
	}
	return m.user
}

// Principal returns the identity used for policy checks, or nil when not authenticated.
func (m *Manager) Principal() *authDomain.Principal {
	user := m.User()
	if user == nil {
		return nil
	}
	return user.Principal()
}

// Authorize checks op against the role of the authenticated user.
func (m *Manager) Authorize(op authDomain.Operation) error {
	principal := m.Principal()
	if principal == nil {
		return ErrReauthenticationRequired
	}
	if !authDomain.IsAllowed(principal.Role, op) {
		return apperrors.Wrapf(authDomain.ErrOperationNotAllowed, "%s", op)
	}
	return nil
}

// Login performs the password step. Any previous in-memory session is discarded.
func (m *Manager) Login(ctx context.Context, email, password string) (LoginOutcome, error) {
	m.mu.Lock()
	m.resetLocked()
	m.state = StateAwaitingCredentials
	m.mu.Unlock()

	result, err := m.auth.Login(ctx, email, password)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return nil, err
	}

	switch r := result.(type) {
	case *api.LoginSetupRequired:
		m.holdVerification(StatePendingSecondFactorSetup, r.VerificationToken, email)
		return &SetupRequired{Enrollment: r.Enrollment}, nil
	case *api.LoginStepUpRequired:
		m.holdVerification(StatePendingSecondFactor, r.VerificationToken, email)
		return &StepUpRequired{}, nil
	case *api.LoginGranted:
		if err := m.establish(ctx, r.Session); err != nil {
			return nil, err
		}
		return &Authenticated{User: r.Session.User}, nil
	default:
		return nil, api.ErrUnexpectedLoginResponse
	}
}

// CompleteSecondFactor submits a TOTP code with the held verification token. A wrong
// code keeps the state so the user can try again.
func (m *Manager) CompleteSecondFactor(ctx context.Context, code string) (*Authenticated, error) {
	m.mu.Lock()
	state, token, email := m.state, m.verificationToken, m.pendingEmail
	m.mu.Unlock()

	if state != StatePendingSecondFactor && state != StatePendingSecondFactorSetup {
		return nil, ErrInvalidState
	}
	if m.expired(token) {
		m.expireVerification()
		return nil, ErrVerificationExpired
	}

	var (
		session *api.Session
		err     error
	)
	if state == StatePendingSecondFactorSetup {
		session, err = m.auth.VerifySecondFactor(ctx, token, code)
	} else {
		session, err = m.auth.LoginVerifySecondFactor(ctx, token, email, code)
	}

	if err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrUnauthorized) && m.expired(token):
			m.expireVerification()
			return nil, ErrVerificationExpired
		case apperrors.Is(err, apperrors.ErrUnauthorized):
			return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		case apperrors.Is(err, apperrors.ErrLocked):
			m.expireVerification()
			return nil, err
		default:
			return nil, err
		}
	}

	if err := m.establish(ctx, session); err != nil {
		return nil, err
	}
	return &Authenticated{User: session.User}, nil
}

// EnsureFreshAccessToken returns the access token, refreshing it first when it expires
// within the guard window. Concurrent callers share a single refresh.
func (m *Manager) EnsureFreshAccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	state, access := m.state, m.accessToken
	m.mu.Unlock()

	if state != StateAuthenticated {
		return "", ErrReauthenticationRequired
	}
	if m.fresh(access) {
		return access, nil
	}
	return m.refresh(ctx, func(current string) bool { return m.fresh(current) })
}

// ForceRefresh refreshes after the server rejected the access token rejected. When a
// concurrent refresh already replaced it, the newer token is returned.
func (m *Manager) ForceRefresh(ctx context.Context, rejected string) (string, error) {
	return m.refresh(ctx, func(current string) bool { return current != rejected })
}

// Logout revokes the refresh token on a best-effort basis and clears the session from
// memory and from the durable store. It is idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	refresh := m.refreshToken
	m.resetLocked()
	m.state = StateAnonymous
	m.mu.Unlock()

	if refresh == "" {
		if tokens, err := m.store.Load(ctx); err == nil {
			refresh = tokens.RefreshToken
		}
	}
	if refresh != "" {
		if err := m.auth.Logout(ctx, refresh); err != nil && m.logger != nil {
			m.logger.Warn("failed to revoke refresh token", slog.Any("error", err))
		}
	}

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	return nil
}

// Restore resumes the persisted session: it refreshes the access token if needed and
// loads the user. A rejected session leaves the manager Anonymous; an I/O failure keeps
// the stored tokens so Restore can be retried.
func (m *Manager) Restore(ctx context.Context) error {
	tokens, err := m.store.Load(ctx)
	if err != nil {
		m.mu.Lock()
		m.resetLocked()
		m.state = StateAnonymous
		m.mu.Unlock()
		if apperrors.Is(err, ErrNoTokens) {
			return ErrReauthenticationRequired
		}
		return fmt.Errorf("failed to load stored session: %w", err)
	}

	m.mu.Lock()
	m.resetLocked()
	m.accessToken = tokens.AccessToken
	m.refreshToken = tokens.RefreshToken
	m.state = StateAuthenticated
	m.mu.Unlock()

	access, err := m.EnsureFreshAccessToken(ctx)
	if err != nil {
		return err
	}

	user, err := m.auth.Me(ctx, access)
	if apperrors.Is(err, apperrors.ErrUnauthorized) {
		if access, err = m.ForceRefresh(ctx, access); err != nil {
			return err
		}
		user, err = m.auth.Me(ctx, access)
	}
	if err != nil {
		if !sessionRejected(err) {
			return fmt.Errorf("failed to load current user: %w", err)
		}
		m.teardown(ctx)
		return fmt.Errorf("%w: %w", ErrReauthenticationRequired, err)
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return nil
}

// refresh runs one single-flight refresh. done reports whether the current access token
// already satisfies the caller, in which case no request is made.
func (m *Manager) refresh(ctx context.Context, done func(current string) bool) (string, error) {
	ch := m.refreshGroup.DoChan("refresh", func() (any, error) {
		m.mu.Lock()
		state, access, refresh := m.state, m.accessToken, m.refreshToken
		m.mu.Unlock()

		if state != StateAuthenticated {
			return "", ErrReauthenticationRequired
		}
		if done(access) {
			return access, nil
		}
		// The shared call must not die with whichever caller started it.
		return m.doRefresh(context.WithoutCancel(ctx), refresh)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) doRefresh(ctx context.Context, refresh string) (string, error) {
	access, err := m.auth.Refresh(ctx, refresh)
	if err != nil {
		if !sessionRejected(err) {
			return "", fmt.Errorf("failed to refresh access token: %w", err)
		}
		if m.logger != nil {
			m.logger.Warn("refresh token rejected, ending session", slog.Any("error", err))
		}
		m.teardown(ctx)
		return "", fmt.Errorf("%w: %w", ErrReauthenticationRequired, err)
	}

	m.mu.Lock()
	if m.refreshToken != refresh {
		// The session changed while refreshing.
		m.mu.Unlock()
		return "", ErrReauthenticationRequired
	}
	m.accessToken = access
	m.mu.Unlock()

	if err := m.store.Save(ctx, Tokens{AccessToken: access, RefreshToken: refresh}); err != nil && m.logger != nil {
		m.logger.Warn("failed to persist refreshed access token", slog.Any("error", err))
	}
	return access, nil
}

// sessionRejected reports whether the server refused the credentials, as opposed to
// failing to answer.
func sessionRejected(err error) bool {
	return apperrors.Is(err, apperrors.ErrUnauthorized) || apperrors.Is(err, apperrors.ErrForbidden)
}

func (m *Manager) establish(ctx context.Context, session *api.Session) error {
	tokens := Tokens{AccessToken: session.AccessToken, RefreshToken: session.RefreshToken}
	if err := m.store.Save(ctx, tokens); err != nil {
		m.mu.Lock()
		m.resetLocked()
		m.state = StateAwaitingCredentials
		m.mu.Unlock()
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.accessToken = tokens.AccessToken
	m.refreshToken = tokens.RefreshToken
	m.user = session.User
	m.state = StateAuthenticated
	return nil
}

func (m *Manager) holdVerification(state State, token, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.verificationToken = token
	m.pendingEmail = email
}

func (m *Manager) expireVerification() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.state = StateAwaitingCredentials
}

func (m *Manager) teardown(ctx context.Context) {
	m.mu.Lock()
	m.resetLocked()
	m.state = StateAnonymous
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil && m.logger != nil {
		m.logger.Warn("failed to clear stored session", slog.Any("error", err))
	}
}

// resetLocked forgets every credential. The caller holds m.mu and sets the next state.
func (m *Manager) resetLocked() {
	m.accessToken = ""
	m.refreshToken = ""
	m.verificationToken = ""
	m.pendingEmail = ""
	m.user = nil
}

// fresh reports whether token stays valid past the guard window.
func (m *Manager) fresh(token string) bool {
	exp, err := tokenExpiry(token)
	if err != nil {
		return false
	}
	return m.now().Add(m.config.RefreshGuard).Before(exp)
}

// expired reports whether token is past its exp claim.
func (m *Manager) expired(token string) bool {
	exp, err := tokenExpiry(token)
	if err != nil {
		return false
	}
	return !m.now().Before(exp)
}
