package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/llm"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/prompts"
)

func TestChatService_SendsSystemHistoryAndMessage(t *testing.T) {
	client := llm.NewMockChatClient()
	client.ChatFunc = func(ctx context.Context, messages []llm.Message) (string, error) {
		return "  Rest and drink fluids.  ", nil
	}
	svc := NewChatService(client, zap.NewNop())

	reply, err := svc.Reply(context.Background(), []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "I have a fever"},
		{Role: models.ChatRoleAssistant, Content: "How high is it?"},
	}, "101F")
	require.NoError(t, err)

	assert.Equal(t, "Rest and drink fluids.", reply)
	require.Len(t, client.LastMessages, 4)
	assert.Equal(t, llm.RoleSystem, client.LastMessages[0].Role)
	assert.Equal(t, prompts.MedicalAssistantSystem, client.LastMessages[0].Content)
	assert.Equal(t, "How high is it?", client.LastMessages[2].Content)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "101F"}, client.LastMessages[3])
}

func TestChatService_EmptyReplyFallsBack(t *testing.T) {
	svc := NewChatService(llm.NewMockChatClient(), zap.NewNop())

	reply, err := svc.Reply(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, ChatFallbackReply, reply)
}

func TestChatService_Errors(t *testing.T) {
	client := llm.NewMockChatClient()
	svc := NewChatService(client, zap.NewNop())

	_, err := svc.Reply(context.Background(), nil, "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Zero(t, client.ChatCalls)

	providerErr := errors.New("HTTP 503")
	client.ChatFunc = func(context.Context, []llm.Message) (string, error) { return "", providerErr }
	_, err = svc.Reply(context.Background(), nil, "hello")
	assert.ErrorIs(t, err, providerErr)

	_, err = NewChatService(nil, zap.NewNop()).Reply(context.Background(), nil, "hello")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}
