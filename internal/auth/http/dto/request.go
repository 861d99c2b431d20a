// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"regexp"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	customValidation "github.com/allisson/filevault/internal/validation"
)

var totpCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)

// SignupRequest contains the parameters for creating an account.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request field
}

// Validate checks that the required fields are present. Format and strength rules are
// enforced by the use case.
func (r *SignupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Username, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginRequest contains the first-factor credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Password, validation.Required),
	)
}

// VerifySecondFactorRequest confirms a first TOTP enrollment.
type VerifySecondFactorRequest struct {
	Code string `json:"code"`
}

// Validate checks if the code is six digits.
func (r *VerifySecondFactorRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code, validation.Required, validation.Match(totpCodeRegex).Error("must be 6 digits")),
	)
}

// LoginVerifySecondFactorRequest completes a login for an enrolled user.
type LoginVerifySecondFactorRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate checks if the step-up request is valid.
func (r *LoginVerifySecondFactorRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Code, validation.Required, validation.Match(totpCodeRegex).Error("must be 6 digits")),
	)
}

// RefreshTokenRequest carries the opaque refresh token for refresh and logout.
type RefreshTokenRequest struct {
	Refresh string `json:"refresh"` //nolint:gosec // request field
}

// Validate checks if the refresh token is present.
func (r *RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Refresh, validation.Required, customValidation.NotBlank),
	)
}

// ChangeRoleRequest contains the target role for a user.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// Validate checks if the role is one of admin, regular or guest.
func (r *ChangeRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Role,
			validation.Required,
			validation.In(string(authDomain.RoleAdmin), string(authDomain.RoleRegular), string(authDomain.RoleGuest)),
		),
	)
}
