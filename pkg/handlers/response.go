package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/auth"
)

// maxRequestBody bounds JSON request bodies. Scan requests carry an inline
// image and use maxScanBody instead.
const maxRequestBody = 1 << 20

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeError is ErrorResponse with the encode failure logged.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeResponse is WriteJSON with the encode failure logged.
func writeResponse(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any) {
	if err := WriteJSON(w, statusCode, data); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeServiceError maps the apperrors sentinels onto HTTP statuses. Any
// other error is answered with fallbackStatus and fallbackCode and a generic
// message so provider and store details never reach the client.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallbackStatus int, fallbackCode string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, logger, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrUnauthenticated):
		writeError(w, logger, http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, apperrors.ErrUnavailable):
		writeError(w, logger, http.StatusServiceUnavailable, "service_unavailable", "Service temporarily unavailable")
	default:
		writeError(w, logger, fallbackStatus, fallbackCode, http.StatusText(fallbackStatus))
	}
}

// decodeJSON reads a bounded JSON body into dst. On failure it writes a 400
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64, logger *zap.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, logger, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
			return false
		}
		writeError(w, logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

// requireUserID returns the authenticated user's ID or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	userID, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, logger, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return "", false
	}
	return userID, true
}

// clearWriteDeadline lifts the server's write timeout for a request whose
// duration is governed by its context instead, such as a model call.
func clearWriteDeadline(w http.ResponseWriter) {
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
}
