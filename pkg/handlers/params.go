package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseDocumentID extracts and validates the document ID from the request
// path. Returns the ID and true on success, or "" and false after writing an
// error response.
// Expects path parameter: id
func ParseDocumentID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_id", "Invalid ID format")
		return "", false
	}
	return id.String(), true
}
