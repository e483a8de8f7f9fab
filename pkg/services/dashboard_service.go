package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/adherence"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// DashboardRecentScans is the number of scanned medications shown on the dashboard.
const DashboardRecentScans = 10

// DashboardService aggregates the home screen statistics.
type DashboardService interface {
	// Summary never fails as a whole: sections whose reads fail are left
	// empty and logged.
	Summary(ctx context.Context, userID string) *models.DashboardSummary
}

type dashboardService struct {
	collections *repositories.Collections
	medications MedicationService
	tracker     TrackerService
	logger      *zap.Logger
	now         func() time.Time
}

var _ DashboardService = (*dashboardService)(nil)

// NewDashboardService creates a dashboard service.
func NewDashboardService(collections *repositories.Collections, medications MedicationService, tracker TrackerService, logger *zap.Logger) DashboardService {
	return &dashboardService{
		collections: collections,
		medications: medications,
		tracker:     tracker,
		logger:      logger.Named("dashboard"),
		now:         time.Now,
	}
}

func (s *dashboardService) Summary(ctx context.Context, userID string) *models.DashboardSummary {
	now := s.now()
	today := now.Format(adherence.DateLayout)
	summary := &models.DashboardSummary{
		ScannedMeds:    []*models.MedicationRecord{},
		WeeklyCalories: []models.DayCalories{},
	}

	workouts, err := s.collections.Workouts.List(ctx, repositories.Query{
		UserID: userID,
		Where: []repositories.Condition{
			{Field: "date", Op: repositories.OpGreaterOrEqual, Value: startOfWeek(now)},
			{Field: "date", Op: repositories.OpLessOrEqual, Value: today},
		},
	})
	if err != nil {
		s.logSectionFailure("workouts", userID, err)
	} else {
		summary.WorkoutsThisWeek = len(workouts)
	}

	meals, err := s.collections.Meals.List(ctx, repositories.Query{
		UserID: userID,
		Where:  []repositories.Condition{repositories.Eq("date", today)},
	})
	if err != nil {
		s.logSectionFailure("meals", userID, err)
	} else {
		summary.MealsToday = len(meals)
	}

	scans, err := s.medications.ListScans(ctx, userID, DashboardRecentScans)
	if err != nil {
		s.logSectionFailure("scans", userID, err)
	} else {
		summary.ScannedMeds = scans
	}

	weekStart := now.AddDate(0, 0, -6)
	logs, err := s.collections.CalorieLogs.List(ctx, repositories.Query{
		UserID: userID,
		Where: []repositories.Condition{
			{Field: "date", Op: repositories.OpGreaterOrEqual, Value: weekStart.Format(adherence.DateLayout)},
			{Field: "date", Op: repositories.OpLessOrEqual, Value: today},
		},
	})
	if err != nil {
		s.logSectionFailure("calorie_logs", userID, err)
	} else {
		summary.WeeklyCalories = weeklyCalories(weekStart, logs)
		for _, l := range logs {
			if l.Date == today {
				summary.CaloriesToday = l.CaloriesIn
			}
		}
	}

	day, err := s.tracker.Day(ctx, userID, today)
	if err != nil {
		s.logSectionFailure("adherence", userID, err)
	} else {
		summary.Adherence = day
	}

	return summary
}

// weeklyCalories returns seven consecutive days starting at start, with zero
// totals for days without a log.
func weeklyCalories(start time.Time, logs []*models.CalorieLog) []models.DayCalories {
	byDate := make(map[string]*models.CalorieLog, len(logs))
	for _, l := range logs {
		byDate[l.Date] = l
	}

	days := make([]models.DayCalories, 0, 7)
	for i := range 7 {
		d := start.AddDate(0, 0, i)
		point := models.DayCalories{
			Date: d.Format(adherence.DateLayout),
			Day:  d.Format("Mon"),
		}
		if l, ok := byDate[point.Date]; ok {
			point.CaloriesIn = l.CaloriesIn
			point.CaloriesOut = l.CaloriesOut
		}
		days = append(days, point)
	}
	return days
}

func (s *dashboardService) logSectionFailure(section, userID string, err error) {
	s.logger.Warn("Dashboard section unavailable",
		zap.String("section", section),
		zap.String("user_id", userID),
		zap.Error(err))
}
