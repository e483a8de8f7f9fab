package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient reads images with Google's Gemini models.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiClient creates a Gemini vision client.
func NewGeminiClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		name:    cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("gemini"),
	}, nil
}

// AnalyzeImage implements VisionClient.
func (c *GeminiClient) AnalyzeImage(ctx context.Context, prompt string, imageDataURI string) (string, error) {
	mimeType, data, err := DecodeDataURI(imageDataURI)
	if err != nil {
		return "", NewError(ErrorTypeUnknown, "invalid image", false, err)
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(ImageFormat(mimeType), data))
	if err != nil {
		llmErr := ClassifyError(err)
		llmErr.Model = c.name
		c.logger.Error("Gemini request failed",
			zap.String("model", c.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", llmErr
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.logger.Warn("Gemini returned no candidates", zap.String("model", c.name))
		return "", nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	c.logger.Info("Gemini request completed",
		zap.String("model", c.name),
		zap.Duration("elapsed", time.Since(start)))

	return text.String(), nil
}

// requestContext applies the configured per-request timeout. Zero leaves the
// caller's context in charge.
func (c *GeminiClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.name
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
