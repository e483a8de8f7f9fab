package models

// Meal types accepted by the meal log.
const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
	MealTypeSnack     = "snack"
)

// DefaultCalorieGoal is the daily goal used when the user has not set one.
const DefaultCalorieGoal = 2000

// IsValidMealType checks if the given meal type is accepted.
func IsValidMealType(mealType string) bool {
	switch mealType {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// Workout is a planned or completed training session.
type Workout struct {
	DocumentMeta

	Name      string     `json:"name,omitempty"`
	Date      string     `json:"date"` // YYYY-MM-DD
	Exercises []Exercise `json:"exercises"`
	Duration  int        `json:"duration"` // minutes
	Calories  int        `json:"calories"`
	Notes     string     `json:"notes,omitempty"`
}

type Exercise struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// Meal is one logged meal.
type Meal struct {
	DocumentMeta

	Date          string     `json:"date"` // YYYY-MM-DD
	MealType      string     `json:"meal_type"`
	Foods         []FoodItem `json:"foods"`
	TotalCalories float64    `json:"total_calories"`
}

type FoodItem struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Quantity float64 `json:"quantity"`
}

// ComputeTotalCalories sums calories times quantity over all foods.
func (m *Meal) ComputeTotalCalories() float64 {
	var total float64
	for _, f := range m.Foods {
		total += f.Calories * f.Quantity
	}
	return total
}

// CalorieLog is the per-day energy balance. There is one per user and date.
type CalorieLog struct {
	DocumentMeta

	Date        string  `json:"date"` // YYYY-MM-DD
	CaloriesIn  float64 `json:"calories_in"`
	CaloriesOut float64 `json:"calories_out"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Goal        float64 `json:"goal"`
}

// Remaining returns calories left for the day: goal - in + out.
func (l *CalorieLog) Remaining() float64 {
	return l.Goal - l.CaloriesIn + l.CaloriesOut
}

// Net returns calories in minus calories out.
func (l *CalorieLog) Net() float64 {
	return l.CaloriesIn - l.CaloriesOut
}

// DayCalories is one point of the weekly calorie trend.
type DayCalories struct {
	Date        string  `json:"date"`
	Day         string  `json:"day"`
	CaloriesIn  float64 `json:"calories_in"`
	CaloriesOut float64 `json:"calories_out"`
}

// DashboardSummary aggregates the home screen statistics.
type DashboardSummary struct {
	WorkoutsThisWeek int                 `json:"workouts_this_week"`
	CaloriesToday    float64             `json:"calories_today"`
	MealsToday       int                 `json:"meals_today"`
	ScannedMeds      []*MedicationRecord `json:"scanned_meds"`
	WeeklyCalories   []DayCalories       `json:"weekly_calories"`
	Adherence        *DaySummary         `json:"adherence,omitempty"`
}
