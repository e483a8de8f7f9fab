package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseDocumentID(t *testing.T) {
	tests := []struct {
		name      string
		pathValue string
		wantOK    bool
		wantID    string
	}{
		{"valid UUID", "550e8400-e29b-41d4-a716-446655440000", true, "550e8400-e29b-41d4-a716-446655440000"},
		{"uppercase UUID is normalized", "550E8400-E29B-41D4-A716-446655440000", true, "550e8400-e29b-41d4-a716-446655440000"},
		{"invalid UUID", "not-a-uuid", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("id", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseDocumentID(rec, req, zap.NewNop())

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, "invalid_id", decodeBody(t, rec)["error"])
			}
		})
	}
}
