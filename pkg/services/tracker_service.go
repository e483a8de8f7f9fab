package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/adherence"
	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// TrackerService exposes the daily dose schedule and records taken doses.
type TrackerService interface {
	// Day returns the schedule and adherence stats for date (YYYY-MM-DD,
	// today when empty).
	Day(ctx context.Context, userID, date string) (*models.DaySummary, error)

	// Toggle flips the taken state of one scheduled dose, creating the log
	// as taken when none exists yet.
	Toggle(ctx context.Context, userID, medicationID, scheduledTime, date string) (*models.MedicationLog, error)
}

type trackerService struct {
	medications *repositories.Collection[*models.MedicationRecord]
	logs        *repositories.Collection[*models.MedicationLog]
	logger      *zap.Logger
	now         func() time.Time

	// toggleMu serializes find-or-create of dose logs within this instance.
	toggleMu sync.Mutex
}

var _ TrackerService = (*trackerService)(nil)

// NewTrackerService creates a tracker service.
func NewTrackerService(
	medications *repositories.Collection[*models.MedicationRecord],
	logs *repositories.Collection[*models.MedicationLog],
	logger *zap.Logger,
) TrackerService {
	return &trackerService{
		medications: medications,
		logs:        logs,
		logger:      logger.Named("tracker"),
		now:         time.Now,
	}
}

func (s *trackerService) Day(ctx context.Context, userID, date string) (*models.DaySummary, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	meds, err := s.medications.List(ctx, repositories.Query{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	logs, err := s.logs.List(ctx, repositories.Query{
		UserID: userID,
		Where:  []repositories.Condition{repositories.Eq("date", date)},
	})
	if err != nil {
		return nil, fmt.Errorf("list dose logs: %w", err)
	}

	summary := adherence.Day(date, meds, logs)
	return &summary, nil
}

func (s *trackerService) Toggle(ctx context.Context, userID, medicationID, scheduledTime, date string) (*models.MedicationLog, error) {
	scheduledTime = adherence.NormalizeTime(scheduledTime)
	if medicationID == "" || scheduledTime == "" {
		return nil, fmt.Errorf("%w: medication_id and time are required", apperrors.ErrInvalidInput)
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	med, err := s.medications.Get(ctx, userID, medicationID)
	if err != nil {
		return nil, err
	}

	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	existing, err := s.logs.First(ctx, repositories.Query{
		UserID: userID,
		Where: []repositories.Condition{
			repositories.Eq("medication_id", medicationID),
			repositories.Eq("scheduled_time", scheduledTime),
			repositories.Eq("date", date),
		},
	})
	switch {
	case err == nil:
		existing.Taken = !existing.Taken
		existing.TakenAt = nil
		if existing.Taken {
			takenAt := s.now().UTC()
			existing.TakenAt = &takenAt
		}
		if err := s.logs.Update(ctx, userID, existing); err != nil {
			return nil, fmt.Errorf("update dose log: %w", err)
		}
		return existing, nil

	case errors.Is(err, apperrors.ErrNotFound):
		takenAt := s.now().UTC()
		log := &models.MedicationLog{
			MedicationID:   med.ID,
			MedicationName: med.DisplayName(),
			Dosage:         med.DisplayDosage(),
			ScheduledTime:  scheduledTime,
			Date:           date,
			Taken:          true,
			TakenAt:        &takenAt,
		}
		if err := s.logs.Create(ctx, userID, log); err != nil {
			return nil, fmt.Errorf("create dose log: %w", err)
		}
		s.logger.Debug("Dose log created",
			zap.String("user_id", userID),
			zap.String("medication_id", medicationID),
			zap.String("date", date))
		return log, nil

	default:
		return nil, fmt.Errorf("find dose log: %w", err)
	}
}

func (s *trackerService) resolveDate(date string) (string, error) {
	return resolveDate(date, s.now)
}

// resolveDate validates a YYYY-MM-DD date, defaulting to today.
func resolveDate(date string, now func() time.Time) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return now().Format(adherence.DateLayout), nil
	}
	if _, err := time.Parse(adherence.DateLayout, date); err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrInvalidInput)
	}
	return date, nil
}
