package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// IntakeRequest for POST /api/calories/intake
type IntakeRequest struct {
	Date     string  `json:"date,omitempty"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// BurnRequest for POST /api/calories/burn
type BurnRequest struct {
	Date     string  `json:"date,omitempty"`
	Calories float64 `json:"calories"`
}

// GoalRequest for POST /api/calories/goal
type GoalRequest struct {
	Date string  `json:"date,omitempty"`
	Goal float64 `json:"goal"`
}

// CalorieLogResponse is a day log with its derived balance.
type CalorieLogResponse struct {
	*models.CalorieLog
	Remaining float64 `json:"remaining"`
	Net       float64 `json:"net"`
}

func newCalorieLogResponse(log *models.CalorieLog) CalorieLogResponse {
	return CalorieLogResponse{CalorieLog: log, Remaining: log.Remaining(), Net: log.Net()}
}

// CaloriesResponse for GET /api/calories
type CaloriesResponse struct {
	Today   CalorieLogResponse   `json:"today"`
	History []CalorieLogResponse `json:"history"`
}

// CalorieHandler handles the per-day calorie log.
type CalorieHandler struct {
	calorieService services.CalorieService
	logger         *zap.Logger
}

// NewCalorieHandler creates a new calorie handler.
func NewCalorieHandler(calorieService services.CalorieService, logger *zap.Logger) *CalorieHandler {
	return &CalorieHandler{
		calorieService: calorieService,
		logger:         logger,
	}
}

// RegisterRoutes registers the calorie handler's routes on the given mux.
func (h *CalorieHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/calories", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("POST /api/calories/intake", authMiddleware.RequireAuth(h.AddIntake))
	mux.HandleFunc("POST /api/calories/burn", authMiddleware.RequireAuth(h.AddBurn))
	mux.HandleFunc("POST /api/calories/goal", authMiddleware.RequireAuth(h.SetGoal))
}

// Get handles GET /api/calories?date=YYYY-MM-DD
// Returns the day's log and the recent history.
func (h *CalorieHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	today, err := h.calorieService.Get(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Error("Failed to read calorie log", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "get_calories_failed")
		return
	}

	logs, err := h.calorieService.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list calorie history", zap.String("user_id", userID), zap.Error(err))
		logs = nil
	}

	history := make([]CalorieLogResponse, 0, len(logs))
	for _, log := range logs {
		history = append(history, newCalorieLogResponse(log))
	}

	writeResponse(w, h.logger, http.StatusOK, CaloriesResponse{
		Today:   newCalorieLogResponse(today),
		History: history,
	})
}

// AddIntake handles POST /api/calories/intake
func (h *CalorieHandler) AddIntake(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	h.modify(w, r, &req, func(ctx context.Context, userID string) (*models.CalorieLog, error) {
		return h.calorieService.AddIntake(ctx, userID, req.Date, services.Intake{
			Calories: req.Calories,
			Protein:  req.Protein,
			Carbs:    req.Carbs,
			Fat:      req.Fat,
		})
	})
}

// AddBurn handles POST /api/calories/burn
func (h *CalorieHandler) AddBurn(w http.ResponseWriter, r *http.Request) {
	var req BurnRequest
	h.modify(w, r, &req, func(ctx context.Context, userID string) (*models.CalorieLog, error) {
		return h.calorieService.AddBurn(ctx, userID, req.Date, req.Calories)
	})
}

// SetGoal handles POST /api/calories/goal
func (h *CalorieHandler) SetGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	h.modify(w, r, &req, func(ctx context.Context, userID string) (*models.CalorieLog, error) {
		return h.calorieService.SetGoal(ctx, userID, req.Date, req.Goal)
	})
}

// modify decodes req and applies one change to the user's day log.
func (h *CalorieHandler) modify(w http.ResponseWriter, r *http.Request, req any, apply func(context.Context, string) (*models.CalorieLog, error)) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	if !decodeJSON(w, r, req, maxRequestBody, h.logger) {
		return
	}

	log, err := apply(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to update calorie log",
			zap.String("user_id", userID),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "update_calories_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, newCalorieLogResponse(log))
}
