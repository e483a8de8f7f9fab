package auth

import (
	"context"
	"fmt"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
)

// GetUserIDFromContext extracts the user ID from the claims in the context.
// Returns empty string if not authenticated.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return claims.Subject
}

// RequireUserIDFromContext extracts the user ID and fails with
// apperrors.ErrUnauthenticated when there is none.
func RequireUserIDFromContext(ctx context.Context) (string, error) {
	userID := GetUserIDFromContext(ctx)
	if userID == "" {
		return "", fmt.Errorf("%w: user ID not found in context", apperrors.ErrUnauthenticated)
	}
	return userID, nil
}
