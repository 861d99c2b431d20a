package api

import (
	"context"
	"errors"
	"net/http"

	authDTO "github.com/allisson/filevault/internal/auth/http/dto"
	"github.com/allisson/filevault/internal/client/transport"
)

// ErrUnexpectedLoginResponse is returned when a login response matches no known outcome.
var ErrUnexpectedLoginResponse = errors.New("unexpected login response")

// LoginResult is the outcome of the password step: *LoginGranted, *LoginStepUpRequired
// or *LoginSetupRequired.
type LoginResult interface {
	isLoginResult()
}

// LoginGranted means the server issued a session without a second factor.
type LoginGranted struct {
	Session *Session
}

// LoginStepUpRequired means the account has TOTP enrolled and a code is required.
type LoginStepUpRequired struct {
	VerificationToken string
}

// LoginSetupRequired means the account must enroll TOTP before the first session.
type LoginSetupRequired struct {
	VerificationToken string
	Enrollment        Enrollment
}

// Enrollment is the TOTP material shown to the user once.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	QRCode          string
}

func (*LoginGranted) isLoginResult()        {}
func (*LoginStepUpRequired) isLoginResult() {}
func (*LoginSetupRequired) isLoginResult()  {}

// Session is the credential pair issued after both factors succeed.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// AuthAPI calls the /auth endpoints. It never consults a TokenSource: the session
// manager is built on top of it.
type AuthAPI struct {
	client  *transport.Client
	baseURL string
}

// NewAuthAPI creates an AuthAPI rooted at baseURL (e.g., "http://localhost:8080/api").
func NewAuthAPI(client *transport.Client, baseURL string) *AuthAPI {
	return &AuthAPI{client: client, baseURL: baseURL}
}

// Signup creates an account.
func (a *AuthAPI) Signup(ctx context.Context, email, username, password string) (*User, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, a.url("auth/signup"),
		authDTO.SignupRequest{Email: email, Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	var resp authDTO.UserResponse
	if err := a.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	return mapUser(resp)
}

// loginResponse accepts both the second-factor challenge and a direct session.
type loginResponse struct {
	authDTO.LoginResponse
	Access  string                `json:"access"`
	Refresh string                `json:"refresh"`
	User    *authDTO.UserResponse `json:"user"`
}

// Login performs the password step.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (LoginResult, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, a.url("auth/login"),
		authDTO.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := a.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}

	switch {
	case resp.RequiresSetup:
		return &LoginSetupRequired{
			VerificationToken: resp.VerificationToken,
			Enrollment: Enrollment{
				Secret:          resp.Secret,
				ProvisioningURI: resp.ProvisioningURI,
				QRCode:          resp.QRCode,
			},
		}, nil
	case resp.RequiresTwoFactor:
		return &LoginStepUpRequired{VerificationToken: resp.VerificationToken}, nil
	case resp.Access != "" && resp.User != nil:
		session, err := mapSession(authDTO.SessionResponse{Access: resp.Access, Refresh: resp.Refresh, User: *resp.User})
		if err != nil {
			return nil, err
		}
		return &LoginGranted{Session: session}, nil
	default:
		return nil, ErrUnexpectedLoginResponse
	}
}

// VerifySecondFactor confirms a first TOTP enrollment and returns the session.
func (a *AuthAPI) VerifySecondFactor(ctx context.Context, verificationToken, code string) (*Session, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, a.url("auth/verify-2fa"),
		authDTO.VerifySecondFactorRequest{Code: code})
	if err != nil {
		return nil, err
	}
	req.BearerToken = verificationToken
	return a.session(ctx, req)
}

// LoginVerifySecondFactor completes a step-up login and returns the session.
func (a *AuthAPI) LoginVerifySecondFactor(ctx context.Context, verificationToken, email, code string) (*Session, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, a.url("auth/login-verify-2fa"),
		authDTO.LoginVerifySecondFactorRequest{Email: email, Code: code})
	if err != nil {
		return nil, err
	}
	req.BearerToken = verificationToken
	return a.session(ctx, req)
}

// Refresh exchanges the refresh token for a new access token.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, a.url("auth/token/refresh"),
		authDTO.RefreshTokenRequest{Refresh: refreshToken})
	if err != nil {
		return "", err
	}

	var resp authDTO.RefreshTokenResponse
	if err := a.client.DoJSON(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.Access, nil
}

// Logout revokes the refresh token on the server.
func (a *AuthAPI) Logout(ctx context.Context, refreshToken string) error {
	req, err := transport.NewJSONRequest(http.MethodPost, a.url("auth/logout"),
		authDTO.RefreshTokenRequest{Refresh: refreshToken})
	if err != nil {
		return err
	}
	return a.client.DoJSON(ctx, req, nil)
}

// Me returns the user the access token belongs to.
func (a *AuthAPI) Me(ctx context.Context, accessToken string) (*User, error) {
	req := &transport.Request{Method: http.MethodGet, URL: a.url("auth/me"), BearerToken: accessToken}

	var resp authDTO.UserResponse
	if err := a.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	return mapUser(resp)
}

func (a *AuthAPI) session(ctx context.Context, req *transport.Request) (*Session, error) {
	var resp authDTO.SessionResponse
	if err := a.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	return mapSession(resp)
}

func (a *AuthAPI) url(path string) string {
	return transport.JoinURL(a.baseURL, path)
}

func mapSession(resp authDTO.SessionResponse) (*Session, error) {
	user, err := mapUser(resp.User)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: resp.Access, RefreshToken: resp.Refresh, User: user}, nil
}
