package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// CommonFoods is the quick-add catalogue offered by the meal form.
var CommonFoods = []models.FoodItem{
	{Name: "Chicken Breast", Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6, Quantity: 1},
	{Name: "Rice (1 cup)", Calories: 206, Protein: 4, Carbs: 45, Fat: 0.4, Quantity: 1},
	{Name: "Eggs (2)", Calories: 156, Protein: 12, Carbs: 1, Fat: 10, Quantity: 1},
	{Name: "Banana", Calories: 105, Protein: 1, Carbs: 27, Fat: 0.4, Quantity: 1},
	{Name: "Oatmeal", Calories: 150, Protein: 5, Carbs: 27, Fat: 3, Quantity: 1},
	{Name: "Salmon", Calories: 208, Protein: 20, Carbs: 0, Fat: 13, Quantity: 1},
	{Name: "Broccoli", Calories: 55, Protein: 4, Carbs: 11, Fat: 0.6, Quantity: 1},
	{Name: "Greek Yogurt", Calories: 100, Protein: 17, Carbs: 6, Fat: 0.7, Quantity: 1},
}

// MealService manages logged meals.
type MealService interface {
	// List returns the user's meals, filtered to one date when date is set.
	List(ctx context.Context, userID, date string) ([]*models.Meal, error)
	Create(ctx context.Context, userID string, meal *models.Meal) (*models.Meal, error)
	Delete(ctx context.Context, userID, id string) error
}

type mealService struct {
	meals  *repositories.Collection[*models.Meal]
	logger *zap.Logger
	now    func() time.Time
}

var _ MealService = (*mealService)(nil)

// NewMealService creates a meal service.
func NewMealService(meals *repositories.Collection[*models.Meal], logger *zap.Logger) MealService {
	return &mealService{
		meals:  meals,
		logger: logger.Named("meals"),
		now:    time.Now,
	}
}

func (s *mealService) List(ctx context.Context, userID, date string) ([]*models.Meal, error) {
	q := repositories.Query{UserID: userID}
	if date != "" {
		d, err := resolveDate(date, s.now)
		if err != nil {
			return nil, err
		}
		q.Where = append(q.Where, repositories.Eq("date", d))
	}
	meals, err := s.meals.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

func (s *mealService) Create(ctx context.Context, userID string, meal *models.Meal) (*models.Meal, error) {
	if !models.IsValidMealType(meal.MealType) {
		return nil, fmt.Errorf("%w: meal_type must be breakfast, lunch, dinner or snack", apperrors.ErrInvalidInput)
	}
	date, err := resolveDate(meal.Date, s.now)
	if err != nil {
		return nil, err
	}

	foods := make([]models.FoodItem, 0, len(meal.Foods))
	for _, f := range meal.Foods {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: every food needs a name", apperrors.ErrInvalidInput)
		}
		if f.Quantity <= 0 {
			f.Quantity = 1
		}
		foods = append(foods, f)
	}

	record := &models.Meal{
		Date:     date,
		MealType: meal.MealType,
		Foods:    foods,
	}
	record.TotalCalories = record.ComputeTotalCalories()

	if err := s.meals.Create(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}
	return record, nil
}

func (s *mealService) Delete(ctx context.Context, userID, id string) error {
	return s.meals.Delete(ctx, userID, id)
}
