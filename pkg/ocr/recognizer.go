package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zenarog/zenarog-engine/pkg/llm"
)

// ErrNoText is returned when a recognizer finds no usable text in an image.
var ErrNoText = errors.New("no text detected")

// minTextLength is the shortest transcription treated as real label text.
const minTextLength = 5

// TextRecognizer turns a label photo into raw text.
type TextRecognizer interface {
	Recognize(ctx context.Context, imageDataURI string) (string, error)
}

const transcriptionPrompt = `Transcribe all printed text on this medicine package or label exactly as it appears.
Keep the original line breaks. Do not translate, summarize or add commentary.
Respond with the text only.`

// VisionRecognizer transcribes labels with a multimodal model.
type VisionRecognizer struct {
	client llm.VisionClient
}

// NewVisionRecognizer creates a recognizer backed by the given vision client.
func NewVisionRecognizer(client llm.VisionClient) *VisionRecognizer {
	return &VisionRecognizer{client: client}
}

// Recognize implements TextRecognizer.
func (r *VisionRecognizer) Recognize(ctx context.Context, imageDataURI string) (string, error) {
	text, err := r.client.AnalyzeImage(ctx, transcriptionPrompt, imageDataURI)
	if err != nil {
		return "", fmt.Errorf("transcribe label: %w", err)
	}
	text = stripCodeFence(text)
	if len(strings.TrimSpace(text)) < minTextLength {
		return "", ErrNoText
	}
	return text, nil
}

// stripCodeFence removes a surrounding markdown code fence some models add.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed), "```"))
}

var _ TextRecognizer = (*VisionRecognizer)(nil)
