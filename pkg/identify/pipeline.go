// Package identify turns a medicine photo or label text into an identified
// medicine by running an extractor and then an ordered chain of resolvers.
package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/models"
)

// ErrNoExtractor is returned when no configured extractor can handle the input.
var ErrNoExtractor = errors.New("no extractor available for this input")

// Pipeline runs one identification: extract a candidate, then resolve it.
type Pipeline struct {
	vision    Extractor
	ocr       Extractor
	resolvers []Resolver
	logger    *zap.Logger
}

// NewPipeline creates a pipeline. vision may be nil when no vision model is
// configured. Resolvers run in the order given.
func NewPipeline(vision Extractor, ocrExtractor Extractor, resolvers []Resolver, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		vision:    vision,
		ocr:       ocrExtractor,
		resolvers: resolvers,
		logger:    logger.Named("identify"),
	}
}

// Run identifies the medicine in input. Extraction errors (including vision
// provider failures) are returned. Resolver errors are logged and treated as
// no match.
func (p *Pipeline) Run(ctx context.Context, input models.ScanInput) (*models.ScanResult, error) {
	extractor, err := p.selectExtractor(input)
	if err != nil {
		return nil, err
	}

	candidate, err := extractor.Extract(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%s extraction: %w", extractor.Name(), err)
	}

	resolvedBy := p.resolve(ctx, candidate)

	if models.IsUnknown(candidate.Insight.Medicine.BrandName) {
		candidate.Insight.Medicine.BrandName = models.UnknownName
	}

	p.logger.Info("Scan identified",
		zap.String("source", candidate.Source),
		zap.String("resolved_by", resolvedBy),
		zap.Bool("identified", candidate.Insight.Identified),
		zap.Float64("confidence", candidate.Insight.ConfidenceScore))

	return &models.ScanResult{
		Insight:    candidate.Insight,
		Source:     candidate.Source,
		ResolvedBy: resolvedBy,
		RawText:    candidate.RawText,
		Reference:  candidate.Reference,
	}, nil
}

// imageReader is implemented by extractors that may or may not be able to
// read an image, depending on how they were configured.
type imageReader interface {
	ReadsImages() bool
}

func (p *Pipeline) selectExtractor(input models.ScanInput) (Extractor, error) {
	hasImage := strings.TrimSpace(input.ImageDataURI) != ""
	hasText := strings.TrimSpace(input.OCRText) != ""

	switch {
	case !hasImage && !hasText:
		return nil, ErrNoInput
	case hasText:
		if p.ocr != nil {
			return p.ocr, nil
		}
	case p.vision != nil:
		return p.vision, nil
	case p.ocr != nil:
		if r, ok := p.ocr.(imageReader); !ok || r.ReadsImages() {
			return p.ocr, nil
		}
	}
	return nil, ErrNoExtractor
}

// resolve walks the resolver chain and returns the name of the one that matched.
func (p *Pipeline) resolve(ctx context.Context, candidate *models.ScanCandidate) string {
	for _, r := range p.resolvers {
		if !r.Applies(candidate) {
			continue
		}
		resolved, err := r.Resolve(ctx, candidate)
		if err != nil {
			p.logger.Warn("Resolver failed, continuing",
				zap.String("resolver", r.Name()),
				zap.Error(err))
			continue
		}
		if resolved {
			return r.Name()
		}
	}
	return ""
}
