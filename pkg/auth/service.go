package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	// ValidateRequest identifies the user making the request. It checks:
	//   1. The session cookie (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	ValidateRequest(r *http.Request) (*Claims, error)

	// ValidateToken validates a raw ID token.
	ValidateToken(token string) (*Claims, error)
}

// authService implements AuthService.
type authService struct {
	jwksClient JWKSClientInterface
	sessions   *SessionManager
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService. sessions may be nil, in which
// case only bearer tokens are accepted.
func NewAuthService(jwksClient JWKSClientInterface, sessions *SessionManager, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		sessions:   sessions,
		logger:     logger.Named("auth"),
	}
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, error) {
	if s.sessions != nil {
		if claims, err := s.sessions.Current(r); err == nil {
			return claims, nil
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No credentials found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, ErrMissingAuthorization
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return nil, ErrInvalidAuthFormat
	}

	return s.ValidateToken(token)
}

func (s *authService) ValidateToken(token string) (*Claims, error) {
	claims, err := s.jwksClient.ValidateToken(token)
	if err != nil {
		s.logger.Debug("ID token validation failed", zap.Error(err))
		return nil, err
	}
	return claims, nil
}

var _ AuthService = (*authService)(nil)
