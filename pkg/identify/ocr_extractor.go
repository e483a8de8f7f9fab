package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/ocr"
)

// ocrConfidence is assigned to OCR candidates whose name was recognized.
// Label text carries no model confidence of its own.
const ocrConfidence = 0.5

// ErrNoInput is returned when a scan carries neither an image nor text.
var ErrNoInput = errors.New("scan requires an image or recognized text")

// OCRExtractor reads label text, recognizing it from the image when the
// client did not send any, and parses it with the heuristic label parser.
type OCRExtractor struct {
	recognizer ocr.TextRecognizer
	logger     *zap.Logger
}

var _ Extractor = (*OCRExtractor)(nil)

// NewOCRExtractor creates an OCR extractor. recognizer may be nil, in which
// case only client-supplied text is accepted.
func NewOCRExtractor(recognizer ocr.TextRecognizer, logger *zap.Logger) *OCRExtractor {
	return &OCRExtractor{
		recognizer: recognizer,
		logger:     logger.Named("ocr-extractor"),
	}
}

// Name implements Extractor.
func (e *OCRExtractor) Name() string {
	return models.ScanSourceOCR
}

// ReadsImages reports whether the extractor can recognize text in an image.
func (e *OCRExtractor) ReadsImages() bool {
	return e.recognizer != nil
}

// Extract implements Extractor.
func (e *OCRExtractor) Extract(ctx context.Context, input models.ScanInput) (*models.ScanCandidate, error) {
	text := input.OCRText
	if strings.TrimSpace(text) == "" {
		if strings.TrimSpace(input.ImageDataURI) == "" {
			return nil, ErrNoInput
		}
		if e.recognizer == nil {
			return nil, ErrNoExtractor
		}
		recognized, err := e.recognizer.Recognize(ctx, input.ImageDataURI)
		if err != nil {
			if errors.Is(err, ocr.ErrNoText) {
				e.logger.Debug("No label text recognized")
				return &models.ScanCandidate{
					Source:      models.ScanSourceOCR,
					Insight:     DefaultInsight(),
					ImprintHint: input.Imprint,
				}, nil
			}
			return nil, fmt.Errorf("recognize label text: %w", err)
		}
		text = recognized
	}

	result := ocr.ParseLabelText(text)
	return &models.ScanCandidate{
		Source:      models.ScanSourceOCR,
		RawText:     result.RawText,
		Insight:     insightFromLabel(result),
		ImprintHint: input.Imprint,
	}, nil
}

// insightFromLabel maps parser output onto an insight. Parser defaults are
// placeholders, not data, so they become empty fields.
func insightFromLabel(r ocr.Result) models.MedicineInsight {
	insight := DefaultInsight()
	insight.IsValid = true
	insight.ImageType = "label"

	if name := r.DrugName; !models.IsUnknown(name) {
		insight.Identified = true
		insight.ConfidenceScore = ocrConfidence
		insight.Medicine.BrandName = name
	}
	insight.Medicine.Strength = labelValue(r.Dosage)
	insight.Medicine.Manufacturer = labelValue(r.Manufacturer)

	if ingredients := labelValue(r.ActiveIngredients); ingredients != "" {
		insight.Medicine.GenericName = []string{ingredients}
	}
	if warnings := labelValue(r.Warnings); warnings != "" {
		insight.MedicalInfo.Warnings = strings.Split(warnings, ". ")
	}
	return insight
}

func labelValue(v string) string {
	if ocr.IsDefault(v) {
		return ""
	}
	return strings.TrimSpace(v)
}
