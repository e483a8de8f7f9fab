package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
)

// StartSessionRequest for POST /api/session
type StartSessionRequest struct {
	IDToken string `json:"id_token"`
}

// SessionResponse describes the signed-in user.
type SessionResponse struct {
	User auth.User `json:"user"`
}

// SessionHandler exchanges ID tokens for session cookies.
type SessionHandler struct {
	authService auth.AuthService
	sessions    *auth.SessionManager
	logger      *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(authService auth.AuthService, sessions *auth.SessionManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		authService: authService,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterRoutes registers the session handler's routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/session", h.Start)
	mux.HandleFunc("GET /api/session", authMiddleware.RequireAuth(h.Current))
	mux.HandleFunc("DELETE /api/session", h.End)
}

// Start handles POST /api/session. The token is taken from the body or,
// failing that, from a Bearer Authorization header.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
			return
		}
	}
	token := strings.TrimSpace(req.IDToken)
	if token == "" {
		if scheme, bearer, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(bearer)
		}
	}
	if token == "" {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "id_token is required")
		return
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, "unauthorized", "Invalid ID token")
		return
	}

	if err := h.sessions.Start(w, r, claims); err != nil {
		h.logger.Error("Failed to start session", zap.String("user_id", claims.Subject), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "session_failed", "Failed to start session")
		return
	}

	h.logger.Info("Session started", zap.String("user_id", claims.Subject))
	writeResponse(w, h.logger, http.StatusOK, SessionResponse{User: claims.User()})
}

// Current handles GET /api/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		writeError(w, h.logger, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	writeResponse(w, h.logger, http.StatusOK, SessionResponse{User: claims.User()})
}

// End handles DELETE /api/session. Ending a session that does not exist
// still clears the cookie.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		h.logger.Error("Failed to end session", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "session_failed", "Failed to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
