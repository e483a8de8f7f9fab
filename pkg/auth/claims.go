// Package auth validates identity-provider ID tokens and manages the
// session cookie that carries the signed-in user between requests.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing the authenticated user's claims.
	ClaimsKey contextKey = "claims"
)

// Claims is the subset of an ID token the service relies on.
// Subject is the stable user id that owns every stored document.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// User is the public view of the signed-in user.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// User returns the public view of the claims.
func (c *Claims) User() User {
	return User{
		ID:      c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims retrieves the claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}
