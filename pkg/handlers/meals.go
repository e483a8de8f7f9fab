package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// MealRequest for POST /api/meals
type MealRequest struct {
	Date     string            `json:"date,omitempty"`
	MealType string            `json:"meal_type"`
	Foods    []models.FoodItem `json:"foods"`
}

// MealListResponse for GET /api/meals
type MealListResponse struct {
	Meals []*models.Meal `json:"meals"`
	Total int            `json:"total"`
}

// FoodListResponse for GET /api/foods
type FoodListResponse struct {
	Foods []models.FoodItem `json:"foods"`
}

// MealHandler handles meal logging and the common-foods catalogue.
type MealHandler struct {
	mealService services.MealService
	logger      *zap.Logger
}

// NewMealHandler creates a new meal handler.
func NewMealHandler(mealService services.MealService, logger *zap.Logger) *MealHandler {
	return &MealHandler{
		mealService: mealService,
		logger:      logger,
	}
}

// RegisterRoutes registers the meal handler's routes on the given mux.
// The foods catalogue is public.
func (h *MealHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/meals", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/meals", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("DELETE /api/meals/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/foods", h.Foods)
}

// List handles GET /api/meals?date=YYYY-MM-DD
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	meals, err := h.mealService.List(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Error("Failed to list meals", zap.String("user_id", userID), zap.Error(err))
		meals = []*models.Meal{}
	}

	writeResponse(w, h.logger, http.StatusOK, MealListResponse{Meals: meals, Total: len(meals)})
}

// Create handles POST /api/meals
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req MealRequest
	if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
		return
	}

	meal, err := h.mealService.Create(r.Context(), userID, &models.Meal{
		Date:     req.Date,
		MealType: req.MealType,
		Foods:    req.Foods,
	})
	if err != nil {
		h.logger.Error("Failed to create meal", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "create_meal_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusCreated, meal)
}

// Delete handles DELETE /api/meals/{id}
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.mealService.Delete(r.Context(), userID, id); err != nil {
		h.logger.Error("Failed to delete meal",
			zap.String("user_id", userID),
			zap.String("meal_id", id),
			zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "delete_meal_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Foods handles GET /api/foods
func (h *MealHandler) Foods(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, http.StatusOK, FoodListResponse{Foods: services.CommonFoods})
}
