package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient generates chat replies with Claude models.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewAnthropicClient creates an Anthropic chat client. cfg.Endpoint, when
// set, overrides the default API base URL.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: float32(cfg.Temperature),
		logger:      logger.Named("anthropic"),
	}, nil
}

// Chat implements ChatClient. System messages are joined into the request's
// system field; the remaining turns are sent in order.
func (c *AnthropicClient) Chat(ctx context.Context, messages []Message) (string, error) {
	var (
		system []string
		turns  []anthropic.Message
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			turns = append(turns, anthropic.NewAssistantTextMessage(m.Content))
		default:
			turns = append(turns, anthropic.NewUserTextMessage(m.Content))
		}
	}

	temperature := c.temperature
	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		System:      strings.Join(system, "\n\n"),
		Messages:    turns,
		Temperature: &temperature,
	})
	if err != nil {
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		c.logger.Error("Anthropic request failed",
			zap.String("model", c.model),
			zap.Int("status", llmErr.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", llmErr
	}

	c.logger.Info("Anthropic request completed",
		zap.String("model", c.model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}
