package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client provides access to OpenAI-compatible endpoints such as OpenRouter.
type Client struct {
	client      *openai.Client
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// Config holds configuration for creating a client.
type Config struct {
	Endpoint    string // Base URL, e.g., "https://openrouter.ai/api/v1"
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // 0 = bounded only by the request context
	Referer     string        // OpenRouter HTTP-Referer attribution
	Title       string        // OpenRouter X-Title attribution
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	clientConfig.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: newAttributionTransport(http.DefaultTransport, cfg.Referer, cfg.Title),
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm"),
	}, nil
}

// AnalyzeImage sends the prompt and the image as a single user message.
func (c *Client) AnalyzeImage(ctx context.Context, prompt string, imageDataURI string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    imageDataURI,
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		},
	}

	c.logger.Debug("Vision request",
		zap.String("model", c.model),
		zap.Int("image_len", len(imageDataURI)))

	return c.complete(ctx, messages)
}

// Chat sends the conversation and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	c.logger.Debug("Chat request",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)))

	return c.complete(ctx, converted)
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: float32(c.temperature),
	})
	if err != nil {
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		llmErr.Endpoint = c.endpoint
		c.logger.Error("LLM request failed",
			zap.String("model", c.model),
			zap.Int("status", llmErr.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", llmErr
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn("LLM returned no choices", zap.String("model", c.model))
		return "", nil
	}

	c.logger.Info("LLM request completed",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *Client) GetEndpoint() string {
	return c.endpoint
}

// attributionTransport adds OpenRouter's optional app attribution headers.
type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func newAttributionTransport(base http.RoundTripper, referer, title string) http.RoundTripper {
	if referer == "" && title == "" {
		return base
	}
	return &attributionTransport{base: base, referer: referer, title: title}
}

// RoundTrip implements http.RoundTripper.
func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
