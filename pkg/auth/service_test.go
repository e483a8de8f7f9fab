package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockJWKSClient is a mock implementation of JWKSClientInterface for testing.
type mockJWKSClient struct {
	claims    *Claims
	err       error
	lastToken string
}

func (m *mockJWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	m.lastToken = tokenString
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func (m *mockJWKSClient) Close() {}

func TestAuthService_ValidateRequest_BearerHeader(t *testing.T) {
	jwks := &mockJWKSClient{claims: validClaims()}
	service := NewAuthService(jwks, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/medications", nil)
	req.Header.Set("Authorization", "Bearer my-id-token")

	claims, err := service.ValidateRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "my-id-token", jwks.lastToken)
}

func TestAuthService_ValidateRequest_SessionTakesPrecedence(t *testing.T) {
	sessions := newTestSessions()
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), validClaims()))

	jwks := &mockJWKSClient{err: errors.New("should not be called")}
	service := NewAuthService(jwks, sessions, zap.NewNop())

	req := roundTrip(rec)
	req.Header.Set("Authorization", "Bearer ignored")

	claims, err := service.ValidateRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Empty(t, jwks.lastToken)
}

func TestAuthService_ValidateRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		header string
		jwks   *mockJWKSClient
		want   error
	}{
		{"missing", "", &mockJWKSClient{}, ErrMissingAuthorization},
		{"basic scheme", "Basic dXNlcjpwYXNz", &mockJWKSClient{}, ErrInvalidAuthFormat},
		{"bearer without token", "Bearer", &mockJWKSClient{}, ErrInvalidAuthFormat},
		{"invalid token", "Bearer bad", &mockJWKSClient{err: ErrMissingSubject}, ErrMissingSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewAuthService(tt.jwks, newTestSessions(), zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			_, err := service.ValidateRequest(req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
