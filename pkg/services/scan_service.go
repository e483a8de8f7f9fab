package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/identify"
	"github.com/zenarog/zenarog-engine/pkg/llm"
	"github.com/zenarog/zenarog-engine/pkg/models"
)

// Identifier runs the identification pipeline.
type Identifier interface {
	Run(ctx context.Context, input models.ScanInput) (*models.ScanResult, error)
}

var _ Identifier = (*identify.Pipeline)(nil)

// ScanOutcome is the result of one scan request.
type ScanOutcome struct {
	Result *models.ScanResult       `json:"result"`
	Saved  *models.MedicationRecord `json:"saved,omitempty"`
}

// ScanService identifies medicines and optionally records them in the user's history.
type ScanService interface {
	// Scan runs identification on input. When save is set the result is
	// stored as a scanned medication. Input errors wrap
	// apperrors.ErrInvalidInput; a missing extractor wraps
	// apperrors.ErrUnavailable; anything else is an analysis failure.
	Scan(ctx context.Context, userID string, input models.ScanInput, save bool) (*ScanOutcome, error)
}

type scanService struct {
	identifier  Identifier
	medications MedicationService
	logger      *zap.Logger
}

var _ ScanService = (*scanService)(nil)

// NewScanService creates a scan service.
func NewScanService(identifier Identifier, medications MedicationService, logger *zap.Logger) ScanService {
	return &scanService{
		identifier:  identifier,
		medications: medications,
		logger:      logger.Named("scans"),
	}
}

func (s *scanService) Scan(ctx context.Context, userID string, input models.ScanInput, save bool) (*ScanOutcome, error) {
	if input.ImageDataURI != "" {
		if _, _, err := llm.DecodeDataURI(input.ImageDataURI); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
	}

	result, err := s.identifier.Run(ctx, input)
	switch {
	case errors.Is(err, identify.ErrNoInput):
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	case errors.Is(err, identify.ErrNoExtractor):
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
	case err != nil:
		s.logger.Error("Scan failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}

	outcome := &ScanOutcome{Result: result}
	if !save {
		return outcome, nil
	}

	saved, err := s.medications.SaveScan(ctx, userID, result)
	if err != nil {
		return nil, err
	}
	outcome.Saved = saved

	s.logger.Info("Scan saved",
		zap.String("user_id", userID),
		zap.String("medication_id", saved.ID),
		zap.Bool("identified", result.Insight.Identified))
	return outcome, nil
}
