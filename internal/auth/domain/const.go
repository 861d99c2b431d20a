// Package domain defines the authentication entities, token types and the role-based
// authorization policy shared by the file API server and the client.
package domain

import "time"

// AppName is the product name, also used as the TOTP issuer.
const AppName = "Secure File Sharing App"

// Default token lifetimes.
const (
	DefaultVerificationTokenTTL = 5 * time.Minute
	DefaultAccessTokenTTL       = 60 * time.Minute
	DefaultRefreshTokenTTL      = 7 * 24 * time.Hour
)

// TokenType distinguishes JWTs issued by the server.
type TokenType string

const (
	// AccessTokenType authorizes protected API calls.
	AccessTokenType TokenType = "access"

	// VerificationTokenType authorizes only completing a pending second-factor challenge.
	VerificationTokenType TokenType = "verification"
)
