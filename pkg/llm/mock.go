package llm

import (
	"context"
	"sync"
)

// MockVisionClient is a configurable VisionClient for tests.
// Set the function fields to control behavior in tests.
type MockVisionClient struct {
	mu sync.Mutex

	// AnalyzeImageFunc is called when AnalyzeImage is invoked.
	// If nil, returns an empty reply and nil error.
	AnalyzeImageFunc func(ctx context.Context, prompt string, imageDataURI string) (string, error)

	// Model is returned by GetModel. Defaults to "mock-vision-model".
	Model string

	// Call tracking for verification
	AnalyzeImageCalls int
	LastPrompt        string
	LastImage         string
}

// NewMockVisionClient creates a new mock with sensible defaults.
func NewMockVisionClient() *MockVisionClient {
	return &MockVisionClient{Model: "mock-vision-model"}
}

// AnalyzeImage implements VisionClient.
func (m *MockVisionClient) AnalyzeImage(ctx context.Context, prompt string, imageDataURI string) (string, error) {
	m.mu.Lock()
	m.AnalyzeImageCalls++
	m.LastPrompt = prompt
	m.LastImage = imageDataURI
	fn := m.AnalyzeImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, imageDataURI)
	}
	return "", nil
}

// GetModel implements VisionClient.
func (m *MockVisionClient) GetModel() string {
	return m.Model
}

// MockChatClient is a configurable ChatClient for tests.
type MockChatClient struct {
	mu sync.Mutex

	// ChatFunc is called when Chat is invoked.
	// If nil, returns an empty reply and nil error.
	ChatFunc func(ctx context.Context, messages []Message) (string, error)

	// Model is returned by GetModel. Defaults to "mock-chat-model".
	Model string

	ChatCalls    int
	LastMessages []Message
}

// NewMockChatClient creates a new mock with sensible defaults.
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{Model: "mock-chat-model"}
}

// Chat implements ChatClient.
func (m *MockChatClient) Chat(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	m.ChatCalls++
	m.LastMessages = append([]Message(nil), messages...)
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return "", nil
}

// GetModel implements ChatClient.
func (m *MockChatClient) GetModel() string {
	return m.Model
}

var (
	_ VisionClient = (*MockVisionClient)(nil)
	_ ChatClient   = (*MockChatClient)(nil)
)
