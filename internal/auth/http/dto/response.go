package dto

import (
	"time"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
)

// UserResponse represents a user in API responses (excludes credentials).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// MapUserToResponse converts a domain user to an API response.
func MapUserToResponse(user *authDomain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// ListUsersResponse represents a paginated list of users in API responses.
type ListUsersResponse struct {
	Data []UserResponse `json:"data"`
}

// MapUsersToListResponse converts a slice of domain users to a list API response.
func MapUsersToListResponse(users []*authDomain.User) ListUsersResponse {
	data := make([]UserResponse, 0, len(users))
	for _, user := range users {
		data = append(data, MapUserToResponse(user))
	}
	return ListUsersResponse{Data: data}
}

// LoginResponse is the outcome of the password step. Either RequiresSetup or
// RequiresTwoFactor is set; enrollment material is only present for setup.
type LoginResponse struct {
	RequiresSetup     bool   `json:"requires_2fa_setup,omitempty"`
	RequiresTwoFactor bool   `json:"requires_2fa,omitempty"`
	VerificationToken string `json:"verification_token"` //nolint:gosec // short-lived token
	Secret            string `json:"secret,omitempty"`   //nolint:gosec // shown once for enrollment
	ProvisioningURI   string `json:"provisioning_uri,omitempty"`
	QRCode            string `json:"qr_code,omitempty"`
}

// MapLoginResultToResponse converts a login result to an API response.
func MapLoginResultToResponse(result *authDomain.LoginResult) LoginResponse {
	response := LoginResponse{
		RequiresSetup:     result.RequiresSetup,
		RequiresTwoFactor: result.RequiresTwoFactor,
		VerificationToken: result.VerificationToken,
	}
	if result.Enrollment != nil {
		response.Secret = result.Enrollment.Secret
		response.ProvisioningURI = result.Enrollment.ProvisioningURI
		response.QRCode = result.Enrollment.QRCode
	}
	return response
}

// SessionResponse contains the credentials issued after both factors succeed.
// SECURITY: The refresh token is only returned once and must be stored securely.
type SessionResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"` //nolint:gosec // returned once on login
	User    UserResponse `json:"user"`
}

// MapSessionToResponse converts a domain session to an API response.
func MapSessionToResponse(session *authDomain.Session) SessionResponse {
	return SessionResponse{
		Access:  session.AccessToken,
		Refresh: session.RefreshToken,
		User:    MapUserToResponse(session.User),
	}
}

// RefreshTokenResponse contains a newly minted access token.
type RefreshTokenResponse struct {
	Access string `json:"access"`
}
