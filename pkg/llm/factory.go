package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/config"
)

// Provider names accepted in the vision and chat configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// NewVisionClient creates the configured vision client behind a circuit breaker.
// Returns nil, nil when no vision model is configured.
func NewVisionClient(ctx context.Context, cfg *config.VisionConfig, logger *zap.Logger) (VisionClient, error) {
	if !cfg.IsAvailable() {
		return nil, nil
	}

	clientCfg := &Config{
		Endpoint:    cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		Referer:     cfg.Referer,
		Title:       cfg.Title,
	}

	var (
		client VisionClient
		err    error
	)
	switch cfg.Provider {
	case ProviderOpenAI, "":
		client, err = NewClient(clientCfg, logger)
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, clientCfg, logger)
	default:
		return nil, fmt.Errorf("unsupported vision provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}

	return WithVisionBreaker(client, NewCircuitBreaker(DefaultCircuitBreakerConfig())), nil
}

// NewChatClient creates the configured chat client behind a circuit breaker.
// Returns nil, nil when no chat model is configured.
func NewChatClient(cfg *config.ChatConfig, logger *zap.Logger) (ChatClient, error) {
	if !cfg.IsAvailable() {
		return nil, nil
	}

	clientCfg := &Config{
		Endpoint:    cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Referer:     cfg.Referer,
		Title:       cfg.Title,
	}

	var (
		client ChatClient
		err    error
	)
	switch cfg.Provider {
	case ProviderOpenAI, "":
		client, err = NewClient(clientCfg, logger)
	case ProviderAnthropic:
		if clientCfg.Endpoint == config.DefaultOpenRouterURL {
			clientCfg.Endpoint = ""
		}
		client, err = NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unsupported chat provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	return WithChatBreaker(client, NewCircuitBreaker(DefaultCircuitBreakerConfig())), nil
}
