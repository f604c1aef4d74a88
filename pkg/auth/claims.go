// Package auth validates JWT bearer tokens against configured JWKS
// endpoints and guards the API routes.
package auth

import "github.com/golang-jwt/jwt/v5"

// contextKey is a private type for context values set by the middleware.
type contextKey string

const (
	// ClaimsKey is the context key holding the validated *Claims.
	ClaimsKey contextKey = "auth_claims"
	// TokenKey is the context key holding the raw bearer token.
	TokenKey contextKey = "auth_token"
)

// Claims are the JWT claims leadforge-engine cares about.
type Claims struct {
	jwt.RegisteredClaims

	// Email identifies the user for audit logging.
	Email string `json:"email,omitempty"`
}
