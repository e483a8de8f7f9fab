package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/adherence"
	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// DefaultScanHistoryLimit bounds the scan history returned when no limit is given.
const DefaultScanHistoryLimit = 50

// MedicationService manages a user's medications, both hand-entered and scanned.
type MedicationService interface {
	// List returns the user's medications, optionally filtered by source
	// (models.MedicationSourceManual or models.MedicationSourceScan).
	List(ctx context.Context, userID, source string) ([]*models.MedicationRecord, error)

	Get(ctx context.Context, userID, id string) (*models.MedicationRecord, error)

	// Create stores a hand-entered medication. Only the name is required.
	Create(ctx context.Context, userID string, med *models.MedicationRecord) (*models.MedicationRecord, error)

	// Update overwrites the user-editable schedule fields of a medication.
	Update(ctx context.Context, userID, id string, changes *models.MedicationRecord) (*models.MedicationRecord, error)

	Delete(ctx context.Context, userID, id string) error

	// SaveScan persists the outcome of an identification as a new medication.
	SaveScan(ctx context.Context, userID string, result *models.ScanResult) (*models.MedicationRecord, error)

	// ListScans returns scanned medications, newest first.
	ListScans(ctx context.Context, userID string, limit int) ([]*models.MedicationRecord, error)

	// AddToCalendar builds one recurring event per scheduled time and marks
	// the medication as added.
	AddToCalendar(ctx context.Context, userID, id string) ([]models.CalendarEvent, error)
}

type medicationService struct {
	medications *repositories.Collection[*models.MedicationRecord]
	logger      *zap.Logger
	now         func() time.Time
}

var _ MedicationService = (*medicationService)(nil)

// NewMedicationService creates a medication service.
func NewMedicationService(medications *repositories.Collection[*models.MedicationRecord], logger *zap.Logger) MedicationService {
	return &medicationService{
		medications: medications,
		logger:      logger.Named("medications"),
		now:         time.Now,
	}
}

func (s *medicationService) List(ctx context.Context, userID, source string) ([]*models.MedicationRecord, error) {
	q := repositories.Query{UserID: userID}
	if source != "" {
		q.Where = append(q.Where, repositories.Eq("source", source))
	}
	meds, err := s.medications.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return meds, nil
}

func (s *medicationService) Get(ctx context.Context, userID, id string) (*models.MedicationRecord, error) {
	return s.medications.Get(ctx, userID, id)
}

func (s *medicationService) Create(ctx context.Context, userID string, med *models.MedicationRecord) (*models.MedicationRecord, error) {
	med.Name = strings.TrimSpace(med.Name)
	if med.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}

	record := &models.MedicationRecord{Source: models.MedicationSourceManual}
	applySchedule(record, med)

	if err := s.medications.Create(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("create medication: %w", err)
	}

	s.logger.Info("Medication created",
		zap.String("user_id", userID),
		zap.String("medication_id", record.ID))
	return record, nil
}

func (s *medicationService) Update(ctx context.Context, userID, id string, changes *models.MedicationRecord) (*models.MedicationRecord, error) {
	record, err := s.medications.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	applySchedule(record, changes)
	if strings.TrimSpace(record.Name) == "" && record.Source == models.MedicationSourceManual {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}

	if err := s.medications.Update(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("update medication: %w", err)
	}
	return record, nil
}

// applySchedule copies the fields a user may edit. Frequency is stored as
// typed; times are normalized so intake logs match them.
func applySchedule(dst, src *models.MedicationRecord) {
	dst.Name = strings.TrimSpace(src.Name)
	dst.Dosage = src.Dosage
	dst.Frequency = src.Frequency
	dst.Times = normalizeTimes(src.Times)
	dst.StartDate = src.StartDate
	dst.EndDate = src.EndDate
	dst.Notes = src.Notes
}

func normalizeTimes(times []string) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		if t = adherence.NormalizeTime(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *medicationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.medications.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("Medication deleted",
		zap.String("user_id", userID),
		zap.String("medication_id", id))
	return nil
}

func (s *medicationService) SaveScan(ctx context.Context, userID string, result *models.ScanResult) (*models.MedicationRecord, error) {
	insight := result.Insight
	scannedAt := s.now().UTC().Truncate(time.Second)

	brand := insight.Medicine.BrandName
	if models.IsUnknown(brand) {
		brand = models.UnknownName
	}
	risk := insight.Insights.SafetyRiskLevel
	if risk == "" {
		risk = models.RiskLevelLow
	}

	record := &models.MedicationRecord{
		Source:               models.MedicationSourceScan,
		BrandName:            brand,
		GenericName:          insight.Medicine.GenericName,
		Strength:             insight.Medicine.Strength,
		DosageForm:           insight.Medicine.DosageForm,
		Manufacturer:         insight.Medicine.Manufacturer,
		Imprint:              insight.TabletDetails.Imprint,
		Uses:                 insight.MedicalInfo.Uses,
		Warnings:             insight.MedicalInfo.Warnings,
		SideEffects:          insight.MedicalInfo.CommonSideEffects,
		Interactions:         insight.MedicalInfo.Interactions,
		RiskLevel:            risk,
		RequiresPrescription: insight.RiskFlags.RequiresPrescription,
		Identified:           insight.Identified,
		Confidence:           insight.ConfidenceScore,
		ScannedAt:            &scannedAt,
	}

	if err := s.medications.Create(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("save scan: %w", err)
	}
	return record, nil
}

func (s *medicationService) ListScans(ctx context.Context, userID string, limit int) ([]*models.MedicationRecord, error) {
	if limit <= 0 {
		limit = DefaultScanHistoryLimit
	}
	meds, err := s.medications.List(ctx, repositories.Query{
		UserID:     userID,
		Where:      []repositories.Condition{repositories.Eq("source", models.MedicationSourceScan)},
		OrderBy:    "scanned_at",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return meds, nil
}

func (s *medicationService) AddToCalendar(ctx context.Context, userID, id string) ([]models.CalendarEvent, error) {
	record, err := s.medications.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	events := s.calendarEvents(record)

	record.AddedToCalendar = true
	if err := s.medications.Update(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("mark medication added to calendar: %w", err)
	}
	return events, nil
}

// calendarEvents starts each event on the start date (today when unset) at
// the scheduled time and repeats it daily until the end date, if any.
func (s *medicationService) calendarEvents(med *models.MedicationRecord) []models.CalendarEvent {
	startDate := med.StartDate
	if startDate == "" {
		startDate = s.now().Format(adherence.DateLayout)
	}

	var until *time.Time
	if end, err := time.Parse(adherence.DateLayout, med.EndDate); err == nil {
		endOfDay := end.Add(24*time.Hour - time.Second)
		until = &endOfDay
	}

	recurrence := "RRULE:FREQ=DAILY"
	if until != nil {
		recurrence += ";UNTIL=" + until.Format("20060102T150405Z")
	}

	events := make([]models.CalendarEvent, 0, len(med.Times))
	for _, t := range med.Times {
		start, err := time.Parse("2006-01-02 15:04", startDate+" "+strings.TrimSpace(t))
		if err != nil {
			s.logger.Debug("Skipping unparseable dose time",
				zap.String("medication_id", med.ID),
				zap.String("time", t))
			continue
		}
		events = append(events, models.CalendarEvent{
			Title:       med.DisplayName() + " - " + med.DisplayDosage(),
			Description: med.Notes,
			Start:       start,
			Recurrence:  recurrence,
			Until:       until,
		})
	}
	return events
}
