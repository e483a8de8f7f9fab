// Package llm provides the chat and vision model clients.
package llm

import (
	"context"
)

// Message roles accepted by ChatClient.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// VisionClient sends one instruction plus one inline image to a multimodal model.
type VisionClient interface {
	// AnalyzeImage returns the model's raw text reply. imageDataURI is a
	// data: URI (e.g. "data:image/jpeg;base64,...").
	AnalyzeImage(ctx context.Context, prompt string, imageDataURI string) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// ChatClient generates a reply to a conversation.
type ChatClient interface {
	// Chat returns the assistant's reply. An empty string means the model
	// produced no content.
	Chat(ctx context.Context, messages []Message) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

var (
	_ VisionClient = (*Client)(nil)
	_ ChatClient   = (*Client)(nil)
	_ VisionClient = (*GeminiClient)(nil)
	_ ChatClient   = (*AnthropicClient)(nil)
)
