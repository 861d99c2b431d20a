// Package http provides the HTTP handlers and middleware for authentication and user
// administration.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
	apperrors "github.com/allisson/filevault/internal/errors"
	"github.com/allisson/filevault/internal/httputil"
)

// AccessTokenMiddleware authenticates requests with an access token in the Authorization
// header and stores the principal in the request context.
//
// The role is read from the current user record, not from the token claims, so role
// changes and deletions take effect before the token expires. Verification tokens are
// rejected.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Invalid, expired or wrongly scoped token → 401 Unauthorized
//   - Deleted user → 401 Unauthorized
func AccessTokenMiddleware(authUseCase authUseCase.AuthUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c, logger)
		if !ok {
			return
		}

		user, err := authUseCase.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithPrincipal(c.Request.Context(), user.Principal())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// VerificationTokenMiddleware authenticates the second login step with a short-lived
// verification token. Access tokens are rejected.
func VerificationTokenMiddleware(authUseCase authUseCase.AuthUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c, logger)
		if !ok {
			return
		}

		principal, err := authUseCase.AuthenticateVerification(c.Request.Context(), token)
		if err != nil {
			logger.Debug("verification token rejected", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithVerification(c.Request.Context(), &VerificationContext{Token: token, Principal: principal})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireOperation denies the request unless the principal's role permits op.
//
// This middleware MUST be used after AccessTokenMiddleware.
func RequireOperation(op authDomain.Operation, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !authDomain.IsAllowed(principal.Role, op) {
			logger.Debug("operation denied",
				slog.String("user_id", principal.UserID.String()),
				slog.String("role", string(principal.Role)),
				slog.String("operation", string(op)))
			httputil.HandleErrorGin(c, authDomain.ErrOperationNotAllowed, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>" (case-insensitive
// scheme). On failure it writes a 401 and aborts.
func bearerToken(c *gin.Context, logger *slog.Logger) (string, bool) {
	const bearerPrefix = "bearer "

	authHeader := c.GetHeader("Authorization")
	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		logger.Debug("authentication failed: missing or malformed authorization header")
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		c.Abort()
		return "", false
	}

	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if token == "" {
		logger.Debug("authentication failed: empty bearer token")
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		c.Abort()
		return "", false
	}
	return token, true
}
