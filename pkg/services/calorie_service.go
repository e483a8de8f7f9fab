package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// CalorieHistoryDays is the number of day logs returned by History.
const CalorieHistoryDays = 7

// Intake is calories and macros eaten.
type Intake struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// CalorieService maintains one calorie log per user and date.
type CalorieService interface {
	// Get returns the log for date without creating it. A missing log is
	// reported as an empty log with the default goal.
	Get(ctx context.Context, userID, date string) (*models.CalorieLog, error)

	// History returns the most recent day logs, newest first.
	History(ctx context.Context, userID string) ([]*models.CalorieLog, error)

	AddIntake(ctx context.Context, userID, date string, intake Intake) (*models.CalorieLog, error)
	AddBurn(ctx context.Context, userID, date string, calories float64) (*models.CalorieLog, error)
	SetGoal(ctx context.Context, userID, date string, goal float64) (*models.CalorieLog, error)
}

type calorieService struct {
	logs   *repositories.Collection[*models.CalorieLog]
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

var _ CalorieService = (*calorieService)(nil)

// NewCalorieService creates a calorie service.
func NewCalorieService(logs *repositories.Collection[*models.CalorieLog], logger *zap.Logger) CalorieService {
	return &calorieService{
		logs:   logs,
		logger: logger.Named("calories"),
		now:    time.Now,
	}
}

func (s *calorieService) Get(ctx context.Context, userID, date string) (*models.CalorieLog, error) {
	date, err := resolveDate(date, s.now)
	if err != nil {
		return nil, err
	}
	log, err := s.find(ctx, userID, date)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &models.CalorieLog{Date: date, Goal: models.DefaultCalorieGoal}, nil
	}
	return log, err
}

func (s *calorieService) History(ctx context.Context, userID string) ([]*models.CalorieLog, error) {
	logs, err := s.logs.List(ctx, repositories.Query{
		UserID:     userID,
		OrderBy:    "date",
		Descending: true,
		Limit:      CalorieHistoryDays,
	})
	if err != nil {
		return nil, fmt.Errorf("list calorie logs: %w", err)
	}
	return logs, nil
}

func (s *calorieService) AddIntake(ctx context.Context, userID, date string, intake Intake) (*models.CalorieLog, error) {
	if intake.Calories < 0 || intake.Protein < 0 || intake.Carbs < 0 || intake.Fat < 0 {
		return nil, fmt.Errorf("%w: intake must not be negative", apperrors.ErrInvalidInput)
	}
	return s.modify(ctx, userID, date, func(l *models.CalorieLog) {
		l.CaloriesIn += intake.Calories
		l.Protein += intake.Protein
		l.Carbs += intake.Carbs
		l.Fat += intake.Fat
	})
}

func (s *calorieService) AddBurn(ctx context.Context, userID, date string, calories float64) (*models.CalorieLog, error) {
	if calories < 0 {
		return nil, fmt.Errorf("%w: calories must not be negative", apperrors.ErrInvalidInput)
	}
	return s.modify(ctx, userID, date, func(l *models.CalorieLog) {
		l.CaloriesOut += calories
	})
}

func (s *calorieService) SetGoal(ctx context.Context, userID, date string, goal float64) (*models.CalorieLog, error) {
	if goal <= 0 {
		return nil, fmt.Errorf("%w: goal must be positive", apperrors.ErrInvalidInput)
	}
	return s.modify(ctx, userID, date, func(l *models.CalorieLog) {
		l.Goal = goal
	})
}

// modify applies fn to the day log, creating the log first when missing.
func (s *calorieService) modify(ctx context.Context, userID, date string, fn func(*models.CalorieLog)) (*models.CalorieLog, error) {
	date, err := resolveDate(date, s.now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.find(ctx, userID, date)
	switch {
	case err == nil:
		fn(log)
		if err := s.logs.Update(ctx, userID, log); err != nil {
			return nil, fmt.Errorf("update calorie log: %w", err)
		}
	case errors.Is(err, apperrors.ErrNotFound):
		log = &models.CalorieLog{Date: date, Goal: models.DefaultCalorieGoal}
		fn(log)
		if err := s.logs.Create(ctx, userID, log); err != nil {
			return nil, fmt.Errorf("create calorie log: %w", err)
		}
	default:
		return nil, err
	}
	return log, nil
}

func (s *calorieService) find(ctx context.Context, userID, date string) (*models.CalorieLog, error) {
	return s.logs.First(ctx, repositories.Query{
		UserID: userID,
		Where:  []repositories.Condition{repositories.Eq("date", date)},
	})
}
