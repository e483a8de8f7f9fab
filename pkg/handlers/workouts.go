package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// WorkoutRequest for POST /api/workouts and PUT /api/workouts/{id}
type WorkoutRequest struct {
	Name      string            `json:"name,omitempty"`
	Date      string            `json:"date"`
	Exercises []models.Exercise `json:"exercises"`
	Duration  int               `json:"duration"`
	Calories  int               `json:"calories"`
	Notes     string            `json:"notes,omitempty"`
}

func (req *WorkoutRequest) workout() *models.Workout {
	return &models.Workout{
		Name:      req.Name,
		Date:      req.Date,
		Exercises: req.Exercises,
		Duration:  req.Duration,
		Calories:  req.Calories,
		Notes:     req.Notes,
	}
}

// WorkoutListResponse for GET /api/workouts
type WorkoutListResponse struct {
	Workouts []*models.Workout `json:"workouts"`
	Total    int               `json:"total"`
}

// WorkoutHandler handles workout HTTP requests.
type WorkoutHandler struct {
	workoutService services.WorkoutService
	logger         *zap.Logger
}

// NewWorkoutHandler creates a new workout handler.
func NewWorkoutHandler(workoutService services.WorkoutService, logger *zap.Logger) *WorkoutHandler {
	return &WorkoutHandler{
		workoutService: workoutService,
		logger:         logger,
	}
}

// RegisterRoutes registers the workout handler's routes on the given mux.
func (h *WorkoutHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/workouts"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET "+base+"/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT "+base+"/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/workouts
func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	workouts, err := h.workoutService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list workouts", zap.String("user_id", userID), zap.Error(err))
		workouts = []*models.Workout{}
	}

	writeResponse(w, h.logger, http.StatusOK, WorkoutListResponse{Workouts: workouts, Total: len(workouts)})
}

// Create handles POST /api/workouts
func (h *WorkoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req WorkoutRequest
	if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
		return
	}

	workout, err := h.workoutService.Create(r.Context(), userID, req.workout())
	if err != nil {
		h.logger.Error("Failed to create workout", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "create_workout_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusCreated, workout)
}

// Get handles GET /api/workouts/{id}
func (h *WorkoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	workout, err := h.workoutService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "get_workout_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, workout)
}

// Update handles PUT /api/workouts/{id}
func (h *WorkoutHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	var req WorkoutRequest
	if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
		return
	}

	workout, err := h.workoutService.Update(r.Context(), userID, id, req.workout())
	if err != nil {
		h.logger.Error("Failed to update workout",
			zap.String("user_id", userID),
			zap.String("workout_id", id),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "update_workout_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, workout)
}

// Delete handles DELETE /api/workouts/{id}
func (h *WorkoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.workoutService.Delete(r.Context(), userID, id); err != nil {
		h.logger.Error("Failed to delete workout",
			zap.String("user_id", userID),
			zap.String("workout_id", id),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "delete_workout_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
