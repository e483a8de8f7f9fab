package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/adherence"
	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// WorkoutService manages logged workouts.
type WorkoutService interface {
	// List returns the user's workouts, newest date first.
	List(ctx context.Context, userID string) ([]*models.Workout, error)
	Get(ctx context.Context, userID, id string) (*models.Workout, error)
	Create(ctx context.Context, userID string, workout *models.Workout) (*models.Workout, error)
	Update(ctx context.Context, userID, id string, changes *models.Workout) (*models.Workout, error)
	Delete(ctx context.Context, userID, id string) error
}

type workoutService struct {
	workouts *repositories.Collection[*models.Workout]
	logger   *zap.Logger
	now      func() time.Time
}

var _ WorkoutService = (*workoutService)(nil)

// NewWorkoutService creates a workout service.
func NewWorkoutService(workouts *repositories.Collection[*models.Workout], logger *zap.Logger) WorkoutService {
	return &workoutService{
		workouts: workouts,
		logger:   logger.Named("workouts"),
		now:      time.Now,
	}
}

func (s *workoutService) List(ctx context.Context, userID string) ([]*models.Workout, error) {
	workouts, err := s.workouts.List(ctx, repositories.Query{
		UserID:     userID,
		OrderBy:    "date",
		Descending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return workouts, nil
}

func (s *workoutService) Get(ctx context.Context, userID, id string) (*models.Workout, error) {
	return s.workouts.Get(ctx, userID, id)
}

func (s *workoutService) Create(ctx context.Context, userID string, workout *models.Workout) (*models.Workout, error) {
	record := &models.Workout{}
	if err := s.apply(record, workout); err != nil {
		return nil, err
	}
	if err := s.workouts.Create(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}
	return record, nil
}

func (s *workoutService) Update(ctx context.Context, userID, id string, changes *models.Workout) (*models.Workout, error) {
	record, err := s.workouts.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(record, changes); err != nil {
		return nil, err
	}
	if err := s.workouts.Update(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("update workout: %w", err)
	}
	return record, nil
}

func (s *workoutService) Delete(ctx context.Context, userID, id string) error {
	return s.workouts.Delete(ctx, userID, id)
}

func (s *workoutService) apply(dst, src *models.Workout) error {
	date, err := resolveDate(src.Date, s.now)
	if err != nil {
		return err
	}
	if src.Duration < 0 || src.Calories < 0 {
		return fmt.Errorf("%w: duration and calories must not be negative", apperrors.ErrInvalidInput)
	}
	for _, e := range src.Exercises {
		if e.Name == "" {
			return fmt.Errorf("%w: every exercise needs a name", apperrors.ErrInvalidInput)
		}
	}

	dst.Name = src.Name
	dst.Date = date
	dst.Exercises = src.Exercises
	if dst.Exercises == nil {
		dst.Exercises = []models.Exercise{}
	}
	dst.Duration = src.Duration
	dst.Calories = src.Calories
	dst.Notes = src.Notes
	return nil
}

// startOfWeek returns the Sunday on or before t, formatted as a date.
func startOfWeek(t time.Time) string {
	return t.AddDate(0, 0, -int(t.Weekday())).Format(adherence.DateLayout)
}
