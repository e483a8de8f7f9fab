package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCompletionServer records the last chat completion request and answers
// with the given status and body.
func fakeCompletionServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request, map[string]any) {
	t.Helper()

	var (
		lastReq  http.Request
		lastBody = map[string]any{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastReq = *r
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &lastReq, lastBody
}

const completionOK = `{
	"id": "gen-1",
	"object": "chat.completion",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"drugName\":\"Crocin\"}"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestClient_AnalyzeImage_SendsOneTextAndOneImagePart(t *testing.T) {
	server, req, body := fakeCompletionServer(t, http.StatusOK, completionOK)

	client, err := NewClient(&Config{
		Endpoint:    server.URL + "/",
		Model:       "vision-model",
		APIKey:      "sk-or-test",
		MaxTokens:   500,
		Temperature: 0.2,
		Referer:     "https://zenarog.app",
		Title:       "Zenarog",
	}, zap.NewNop())
	require.NoError(t, err)

	reply, err := client.AnalyzeImage(context.Background(), "Extract medication info", "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, `{"drugName":"Crocin"}`, reply)

	assert.Equal(t, "/chat/completions", req.URL.Path)
	assert.Equal(t, "Bearer sk-or-test", req.Header.Get("Authorization"))
	assert.Equal(t, "https://zenarog.app", req.Header.Get("HTTP-Referer"))
	assert.Equal(t, "Zenarog", req.Header.Get("X-Title"))

	assert.Equal(t, "vision-model", body["model"])
	assert.EqualValues(t, 500, body["max_tokens"])
	assert.InDelta(t, 0.2, body["temperature"], 0.0001)

	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "Extract medication info", parts[0].(map[string]any)["text"])
	assert.Equal(t, "image_url", parts[1].(map[string]any)["type"])
	assert.Equal(t, "data:image/jpeg;base64,AAAA", parts[1].(map[string]any)["image_url"].(map[string]any)["url"])
}

func TestClient_Chat_SendsMessagesInOrder(t *testing.T) {
	server, req, body := fakeCompletionServer(t, http.StatusOK, completionOK)

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "chat-model", APIKey: "k", MaxTokens: 500, Temperature: 0.7}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are a helpful medical assistant."},
		{Role: RoleUser, Content: "What is paracetamol?"},
	})
	require.NoError(t, err)

	assert.Empty(t, req.Header.Get("X-Title"))
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "What is paracetamol?", messages[1].(map[string]any)["content"])
}

func TestClient_ErrorStatusIsClassified(t *testing.T) {
	server, _, _ := fakeCompletionServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit exceeded","code":429}}`)

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "vision-model", APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.AnalyzeImage(context.Background(), "p", "data:image/png;base64,AA==")
	require.Error(t, err)

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, 429, llmErr.StatusCode)
	assert.Equal(t, "vision-model", llmErr.Model)
	assert.Contains(t, err.Error(), "HTTP 429")
}

func TestClient_NoChoicesIsEmptyReply(t *testing.T) {
	server, _, _ := fakeCompletionServer(t, http.StatusOK, `{"id":"x","choices":[]}`)

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "m", APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)

	reply, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Empty(t, reply)
}
