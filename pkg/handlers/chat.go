package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// maxChatHistory bounds how many prior turns are forwarded to the model.
const maxChatHistory = 40

// ChatRequest for POST /api/chat
type ChatRequest struct {
	History []models.ChatMessage `json:"history"`
	Message string               `json:"message"`
}

// ChatResponse for POST /api/chat
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler serves the medical assistant.
type ChatHandler struct {
	chatService services.ChatService
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/chat", authMiddleware.RequireAuth(h.Chat))
}

// Chat handles POST /api/chat
// Provider failures are answered with 502 chat_failed and never retried.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	clearWriteDeadline(w)

	var req ChatRequest
	if !decodeJSON(w, r, &req, maxRequestBody, h.logger) {
		return
	}

	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}

	reply, err := h.chatService.Reply(r.Context(), history, req.Message)
	if err != nil {
		h.logger.Error("Chat failed", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, h.logger, err, http.StatusBadGateway, "chat_failed")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, ChatResponse{Reply: reply})
}
