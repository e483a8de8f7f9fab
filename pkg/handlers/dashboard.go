package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// DashboardHandler serves the home screen summary.
type DashboardHandler struct {
	dashboardService services.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboardService services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// RegisterRoutes registers the dashboard handler's routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/dashboard", authMiddleware.RequireAuth(h.Summary))
}

// Summary handles GET /api/dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	writeResponse(w, h.logger, http.StatusOK, h.dashboardService.Summary(r.Context(), userID))
}
