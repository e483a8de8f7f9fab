package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/identify"
	"github.com/zenarog/zenarog-engine/pkg/models"
)

type mockIdentifier struct {
	result *models.ScanResult
	err    error
	calls  int
}

func (m *mockIdentifier) Run(ctx context.Context, input models.ScanInput) (*models.ScanResult, error) {
	m.calls++
	return m.result, m.err
}

func doloResult() *models.ScanResult {
	return &models.ScanResult{
		Source:     models.ScanSourceVision,
		ResolvedBy: identify.ResolverImprint,
		Insight: models.MedicineInsight{
			Identified:      true,
			ConfidenceScore: 0.7,
			Medicine:        models.MedicineInfo{BrandName: "Dolo 650", Strength: "650mg"},
			MedicalInfo:     models.MedicalInfo{Uses: []string{"Fever", "Pain relief"}},
		},
	}
}

func TestScanService_ScanWithoutSave(t *testing.T) {
	colls := newTestCollections(t)
	meds := NewMedicationService(colls.Medications, zap.NewNop())
	identifier := &mockIdentifier{result: doloResult()}
	svc := NewScanService(identifier, meds, zap.NewNop())

	outcome, err := svc.Scan(context.Background(), "user-1", models.ScanInput{ImageDataURI: "data:image/jpeg;base64,AAAA"}, false)
	require.NoError(t, err)

	assert.Equal(t, "Dolo 650", outcome.Result.Insight.Medicine.BrandName)
	assert.Nil(t, outcome.Saved)

	stored, err := meds.List(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestScanService_ScanAndSave(t *testing.T) {
	colls := newTestCollections(t)
	meds := NewMedicationService(colls.Medications, zap.NewNop())
	svc := NewScanService(&mockIdentifier{result: doloResult()}, meds, zap.NewNop())

	outcome, err := svc.Scan(context.Background(), "user-1", models.ScanInput{OCRText: "DOLO 650"}, true)
	require.NoError(t, err)
	require.NotNil(t, outcome.Saved)

	assert.Equal(t, models.MedicationSourceScan, outcome.Saved.Source)
	assert.True(t, outcome.Saved.Identified)
	assert.Equal(t, []string{"Fever", "Pain relief"}, outcome.Saved.Uses)

	scans, err := meds.ListScans(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, scans, 1)
}

func TestScanService_ErrorMapping(t *testing.T) {
	providerErr := errors.New("HTTP 429")
	tests := []struct {
		name   string
		input  models.ScanInput
		runErr error
		want   error
		calls  int
	}{
		{"bad data uri", models.ScanInput{ImageDataURI: "http://example.com/pill.jpg"}, nil, apperrors.ErrInvalidInput, 0},
		{"no input", models.ScanInput{}, identify.ErrNoInput, apperrors.ErrInvalidInput, 1},
		{"no extractor", models.ScanInput{OCRText: "x"}, identify.ErrNoExtractor, apperrors.ErrUnavailable, 1},
		{"provider failure", models.ScanInput{OCRText: "x"}, fmt.Errorf("vision extraction: %w", providerErr), providerErr, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identifier := &mockIdentifier{err: tt.runErr}
			svc := NewScanService(identifier, NewMedicationService(newTestCollections(t).Medications, zap.NewNop()), zap.NewNop())

			_, err := svc.Scan(context.Background(), "user-1", tt.input, true)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.calls, identifier.calls)
		})
	}
}

func TestScanService_ImageWithoutVisionModelIsUnavailable(t *testing.T) {
	pipeline := identify.NewPipeline(nil, identify.NewOCRExtractor(nil, zap.NewNop()), nil, zap.NewNop())
	svc := NewScanService(pipeline, NewMedicationService(newTestCollections(t).Medications, zap.NewNop()), zap.NewNop())

	_, err := svc.Scan(context.Background(), "user-1", models.ScanInput{ImageDataURI: "data:image/jpeg;base64,/9j/4AAQ"}, false)

	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidInput)
}
