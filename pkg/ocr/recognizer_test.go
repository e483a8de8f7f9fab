package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenarog/zenarog-engine/pkg/llm"
)

func TestVisionRecognizer_Recognize(t *testing.T) {
	mock := llm.NewMockVisionClient()
	mock.AnalyzeImageFunc = func(ctx context.Context, prompt, imageDataURI string) (string, error) {
		return "```text\nDOLO 650\nParacetamol Tablets IP\n```", nil
	}

	text, err := NewVisionRecognizer(mock).Recognize(context.Background(), "data:image/jpeg;base64,AA==")
	require.NoError(t, err)
	assert.Equal(t, "DOLO 650\nParacetamol Tablets IP", text)
	assert.Equal(t, "data:image/jpeg;base64,AA==", mock.LastImage)
	assert.Contains(t, mock.LastPrompt, "Transcribe")
}

func TestVisionRecognizer_NoText(t *testing.T) {
	mock := llm.NewMockVisionClient()
	mock.AnalyzeImageFunc = func(ctx context.Context, prompt, imageDataURI string) (string, error) {
		return "  ok ", nil
	}

	_, err := NewVisionRecognizer(mock).Recognize(context.Background(), "data:image/jpeg;base64,AA==")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestVisionRecognizer_ProviderError(t *testing.T) {
	mock := llm.NewMockVisionClient()
	providerErr := errors.New("HTTP 503")
	mock.AnalyzeImageFunc = func(ctx context.Context, prompt, imageDataURI string) (string, error) {
		return "", providerErr
	}

	_, err := NewVisionRecognizer(mock).Recognize(context.Background(), "data:image/jpeg;base64,AA==")
	assert.ErrorIs(t, err, providerErr)
}
