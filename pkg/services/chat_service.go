package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/llm"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/prompts"
)

// ChatFallbackReply is returned when the model produces no content.
const ChatFallbackReply = "Sorry, I could not understand that. Please try again."

// ChatService answers medical questions through the configured chat model.
type ChatService interface {
	// Reply sends the conversation so far plus message and returns the
	// assistant's answer. Provider failures are returned unwrapped for the
	// caller to classify.
	Reply(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}

type chatService struct {
	client llm.ChatClient
	logger *zap.Logger
}

var _ ChatService = (*chatService)(nil)

// NewChatService creates a chat service. client may be nil when no chat
// model is configured; every reply then fails with apperrors.ErrUnavailable.
func NewChatService(client llm.ChatClient, logger *zap.Logger) ChatService {
	return &chatService{
		client: client,
		logger: logger.Named("chat"),
	}
}

func (s *chatService) Reply(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", apperrors.ErrInvalidInput)
	}
	if s.client == nil {
		return "", fmt.Errorf("%w: chat model not configured", apperrors.ErrUnavailable)
	}

	messages := prompts.BuildMedicalConversation(history, message)
	reply, err := s.client.Chat(ctx, messages)
	if err != nil {
		s.logger.Error("Chat completion failed",
			zap.String("model", s.client.GetModel()),
			zap.Int("turns", len(messages)),
			zap.Error(err))
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ChatFallbackReply, nil
	}
	return reply, nil
}
