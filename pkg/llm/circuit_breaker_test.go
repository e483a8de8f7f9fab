package llm

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(threshold int) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: threshold, ResetAfter: time.Minute})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3)
	providerDown := &openai.APIError{HTTPStatusCode: 503}

	for i := 0; i < 2; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(providerDown)
	}
	assert.Equal(t, CircuitClosed, cb.State())

	cb.Record(providerDown)
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Allow()
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	cb, now := newTestBreaker(1)
	cb.Record(&openai.APIError{HTTPStatusCode: 502})
	require.Equal(t, CircuitOpen, cb.State())

	*now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())
	assert.Error(t, cb.Allow(), "only one trial request at a time")

	cb.Record(nil)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	cb, now := newTestBreaker(1)
	cb.Record(&openai.APIError{HTTPStatusCode: 500})

	*now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())
	cb.Record(&openai.APIError{HTTPStatusCode: 500})

	assert.Equal(t, CircuitOpen, cb.State())
	assert.Error(t, cb.Allow())
}

func TestCircuitBreaker_IgnoresNonProviderFailures(t *testing.T) {
	cb, _ := newTestBreaker(1)

	cb.Record(context.Canceled)
	cb.Record(NewError(ErrorTypeUnknown, "invalid image", false, errors.New("not a data URI")))

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestWithVisionBreaker_FailsFastWhenOpen(t *testing.T) {
	mock := NewMockVisionClient()
	mock.AnalyzeImageFunc = func(ctx context.Context, prompt, imageDataURI string) (string, error) {
		return "", ClassifyError(&openai.APIError{HTTPStatusCode: 503})
	}
	cb, _ := newTestBreaker(1)
	client := WithVisionBreaker(mock, cb)

	_, err := client.AnalyzeImage(context.Background(), "p", "data:image/png;base64,AA==")
	require.Error(t, err)
	_, err = client.AnalyzeImage(context.Background(), "p", "data:image/png;base64,AA==")
	require.Error(t, err)

	assert.Equal(t, 1, mock.AnalyzeImageCalls)
	assert.Equal(t, "mock-vision-model", client.GetModel())
}

func TestWithChatBreaker_PassesThrough(t *testing.T) {
	mock := NewMockChatClient()
	mock.ChatFunc = func(ctx context.Context, messages []Message) (string, error) {
		return "hello", nil
	}
	client := WithChatBreaker(mock, NewCircuitBreaker(DefaultCircuitBreakerConfig()))

	reply, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, 1, mock.ChatCalls)
}

type closableVision struct {
	*MockVisionClient
	closed int
}

func (c *closableVision) Close() error {
	c.closed++
	return nil
}

func TestBreakers_ClosePassesThrough(t *testing.T) {
	inner := &closableVision{MockVisionClient: NewMockVisionClient()}
	vision := WithVisionBreaker(inner, NewCircuitBreaker(DefaultCircuitBreakerConfig()))

	closer, ok := vision.(io.Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())
	assert.Equal(t, 1, inner.closed)

	chat := WithChatBreaker(NewMockChatClient(), NewCircuitBreaker(DefaultCircuitBreakerConfig()))
	closer, ok = chat.(io.Closer)
	require.True(t, ok)
	assert.NoError(t, closer.Close())
}
