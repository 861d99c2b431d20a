package http

import (
	"context"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
)

// principalKey is a context key type for storing the authenticated principal.
type principalKey struct{}

// verificationKey is a context key type for storing the verification token and its principal.
type verificationKey struct{}

// VerificationContext is the state established by VerificationTokenMiddleware.
type VerificationContext struct {
	Token     string
	Principal *authDomain.Principal
}

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, principal *authDomain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns (principal, true) if present, or (nil, false) if no principal was set.
func GetPrincipal(ctx context.Context) (*authDomain.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(*authDomain.Principal)
	return principal, ok
}

// WithVerification stores the verification token state in the context.
func WithVerification(ctx context.Context, verification *VerificationContext) context.Context {
	return context.WithValue(ctx, verificationKey{}, verification)
}

// GetVerification retrieves the verification token state from the context.
func GetVerification(ctx context.Context) (*VerificationContext, bool) {
	verification, ok := ctx.Value(verificationKey{}).(*VerificationContext)
	return verification, ok
}
