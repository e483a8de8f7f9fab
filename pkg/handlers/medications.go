package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// MedicationRequest for POST /api/medications and PUT /api/medications/{id}
type MedicationRequest struct {
	Name      string   `json:"name"`
	Dosage    string   `json:"dosage,omitempty"`
	Frequency string   `json:"frequency,omitempty"`
	Times     []string `json:"times,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

func (req *MedicationRequest) record() *models.MedicationRecord {
	return &models.MedicationRecord{
		Name:      req.Name,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
		Times:     req.Times,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
	}
}

// MedicationListResponse for GET /api/medications
type MedicationListResponse struct {
	Medications []*models.MedicationRecord `json:"medications"`
	Total       int                        `json:"total"`
}

// CalendarResponse for POST /api/medications/{id}/calendar
type CalendarResponse struct {
	Events []models.CalendarEvent `json:"events"`
}

// ============================================================================
// Handler
// ============================================================================

// MedicationHandler handles medication HTTP requests.
type MedicationHandler struct {
	medicationService services.MedicationService
	logger            *zap.Logger
}

// NewMedicationHandler creates a new medication handler.
func NewMedicationHandler(medicationService services.MedicationService, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		medicationService: medicationService,
		logger:            logger,
	}
}

// RegisterRoutes registers the medication handler's routes on the given mux.
func (h *MedicationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/medications"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET "+base+"/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT "+base+"/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST "+base+"/{id}/calendar", authMiddleware.RequireAuth(h.AddToCalendar))
}

// List handles GET /api/medications?source=scan|manual
// A failed read is logged and answered with an empty list.
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	source := r.URL.Query().Get("source")
	switch source {
	case "", models.MedicationSourceManual, models.MedicationSourceScan:
	default:
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "source must be scan or manual")
		return
	}

	meds, err := h.medicationService.List(r.Context(), userID, source)
	if err != nil {
		h.logger.Error("Failed to list medications",
			zap.String("user_id", userID),
			zap.String("source", source),
			zap.Error(err))
		meds = []*models.MedicationRecord{}
	}

	writeResponse(w, h.logger, http.StatusOK, MedicationListResponse{Medications: meds, Total: len(meds)})
}

// Create handles POST /api/medications
func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req MedicationRequest
	if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
		return
	}

	med, err := h.medicationService.Create(r.Context(), userID, req.record())
	if err != nil {
		h.logger.Error("Failed to create medication", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "create_medication_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusCreated, med)
}

// Get handles GET /api/medications/{id}
func (h *MedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	med, err := h.medicationService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "get_medication_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, med)
}

// Update handles PUT /api/medications/{id}
func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	var req MedicationRequest
	if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
		return
	}

	med, err := h.medicationService.Update(r.Context(), userID, id, req.record())
	if err != nil {
		h.logger.Error("Failed to update medication",
			zap.String("user_id", userID),
			zap.String("medication_id", id),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "update_medication_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, med)
}

// Delete handles DELETE /api/medications/{id}
func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.medicationService.Delete(r.Context(), userID, id); err != nil {
		h.logger.Error("Failed to delete medication",
			zap.String("user_id", userID),
			zap.String("medication_id", id),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "delete_medication_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddToCalendar handles POST /api/medications/{id}/calendar
func (h *MedicationHandler) AddToCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	events, err := h.medicationService.AddToCalendar(r.Context(), userID, id)
	if err != nil {
		h.logger.Error("Failed to add medication to calendar",
			zap.String("user_id", userID),
			zap.String("medication_id", id),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "add_to_calendar_failed")
		return
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}

	writeResponse(w, h.logger, http.StatusOK, CalendarResponse{Events: events})
}
