package domain

import (
	"github.com/allisson/filevault/internal/errors"
)

// Authentication and user management errors.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates the email or username is taken.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrInvalidCredentials is returned for any password or code mismatch, including an
	// unknown email, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidToken indicates a missing, malformed, expired or wrongly scoped token.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrAccountLocked indicates too many failed attempts.
	ErrAccountLocked = errors.Wrap(errors.ErrLocked, "account locked")

	// ErrRefreshTokenNotFound indicates the refresh token is unknown.
	ErrRefreshTokenNotFound = errors.Wrap(errors.ErrNotFound, "refresh token not found")

	// ErrSecondFactorNotPending indicates no enrollment secret is waiting for confirmation.
	ErrSecondFactorNotPending = errors.Wrap(errors.ErrInvalidInput, "second factor setup not pending")

	// ErrRoleChangeNotAllowed indicates an invalid promotion or an attempt to demote an admin.
	ErrRoleChangeNotAllowed = errors.Wrap(errors.ErrForbidden, "role change not allowed")

	// ErrCannotDeleteAdmin indicates an attempt to delete an admin account.
	ErrCannotDeleteAdmin = errors.Wrap(errors.ErrForbidden, "admin users cannot be deleted")

	// ErrOperationNotAllowed indicates the caller's role does not permit the operation.
	ErrOperationNotAllowed = errors.Wrap(errors.ErrForbidden, "operation not allowed for role")
)
