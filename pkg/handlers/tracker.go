package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// ToggleDoseRequest for POST /api/tracker/toggle
type ToggleDoseRequest struct {
	MedicationID string `json:"medication_id"`
	Time         string `json:"time"`
	Date         string `json:"date,omitempty"`
}

// TrackerHandler serves the daily dose tracker and the adherence report.
type TrackerHandler struct {
	trackerService services.TrackerService
	reportService  services.ReportService
	logger         *zap.Logger
}

// NewTrackerHandler creates a new tracker handler.
func NewTrackerHandler(trackerService services.TrackerService, reportService services.ReportService, logger *zap.Logger) *TrackerHandler {
	return &TrackerHandler{
		trackerService: trackerService,
		reportService:  reportService,
		logger:         logger,
	}
}

// RegisterRoutes registers the tracker handler's routes on the given mux.
func (h *TrackerHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/tracker", authMiddleware.RequireAuth(h.Day))
	mux.HandleFunc("POST /api/tracker/toggle", authMiddleware.RequireAuth(h.Toggle))
	mux.HandleFunc("GET /api/reports/medications.pdf", authMiddleware.RequireAuth(h.Report))
}

// Day handles GET /api/tracker?date=YYYY-MM-DD
func (h *TrackerHandler) Day(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	day, err := h.trackerService.Day(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Error("Failed to build tracker day", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "tracker_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, day)
}

// Toggle handles POST /api/tracker/toggle
func (h *TrackerHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req ToggleDoseRequest
	if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
		return
	}

	log, err := h.trackerService.Toggle(r.Context(), userID, req.MedicationID, req.Time, req.Date)
	if err != nil {
		h.logger.Error("Failed to toggle dose",
			zap.String("user_id", userID),
			zap.String("medication_id", req.MedicationID),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "toggle_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, log)
}

// Report handles GET /api/reports/medications.pdf?from=&to=
func (h *TrackerHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	query := r.URL.Query()
	pdf, err := h.reportService.MedicationReport(r.Context(), userID, query.Get("from"), query.Get("to"))
	if err != nil {
		h.logger.Error("Failed to render medication report", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "report_failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="medications.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.logger.Error("Failed to write report", zap.Error(err))
	}
}
