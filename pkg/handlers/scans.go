package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// maxScanBody bounds scan requests, which carry a base64 image inline.
const maxScanBody = 15 << 20

// ScanRequest for POST /api/scans
type ScanRequest struct {
	Image   string `json:"image,omitempty"`
	OCRText string `json:"ocr_text,omitempty"`
	Imprint string `json:"imprint,omitempty"`
	Save    bool   `json:"save"`
}

// ScanHandler runs medicine identification.
type ScanHandler struct {
	scanService services.ScanService
	logger      *zap.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(scanService services.ScanService, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
		logger:      logger,
	}
}

// RegisterRoutes registers the scan handler's routes on the given mux.
func (h *ScanHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/scans", authMiddleware.RequireAuth(h.Scan))
}

// Scan handles POST /api/scans
// Provider failures are answered with 502 analysis_failed; the request
// context bounds the whole pipeline.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	clearWriteDeadline(w)

	var req ScanRequest
	if !decodeJSON(w, r, &req, maxScanBody, h.logger) {
		return
	}

	input := models.ScanInput{
		ImageDataURI: req.Image,
		OCRText:      req.OCRText,
		Imprint:      req.Imprint,
	}

	outcome, err := h.scanService.Scan(r.Context(), userID, input, req.Save)
	if err != nil {
		h.logger.Error("Scan failed", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusBadGateway, "analysis_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, outcome)
}
