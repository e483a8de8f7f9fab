package repositories

import (
	"context"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/realtime"
)

// Stream is the untyped view of a collection used by push transports.
type Stream interface {
	Name() string
	// WatchSnapshots is Watch with each snapshot boxed as any.
	WatchSnapshots(ctx context.Context, q Query) (<-chan any, error)
}

// WatchSnapshots implements Stream.
func (c *Collection[T]) WatchSnapshots(ctx context.Context, q Query) (<-chan any, error) {
	typed, err := c.Watch(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make(chan any, 1)
	go func() {
		defer close(out)
		for docs := range typed {
			select {
			case out <- docs:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Collections holds one typed repository per persisted kind.
type Collections struct {
	Workouts       *Collection[*models.Workout]
	Meals          *Collection[*models.Meal]
	CalorieLogs    *Collection[*models.CalorieLog]
	Medications    *Collection[*models.MedicationRecord]
	MedicationLogs *Collection[*models.MedicationLog]
}

// NewCollections creates every collection over one store and change bus.
func NewCollections(store DocumentStore, bus realtime.Bus, logger *zap.Logger) *Collections {
	return &Collections{
		Workouts: NewCollection(store, bus, models.KindWorkout,
			func() *models.Workout { return &models.Workout{} }, logger),
		Meals: NewCollection(store, bus, models.KindMeal,
			func() *models.Meal { return &models.Meal{} }, logger),
		CalorieLogs: NewCollection(store, bus, models.KindCalorieLog,
			func() *models.CalorieLog { return &models.CalorieLog{} }, logger),
		Medications: NewCollection(store, bus, models.KindMedication,
			func() *models.MedicationRecord { return &models.MedicationRecord{} }, logger),
		MedicationLogs: NewCollection(store, bus, models.KindMedicationLog,
			func() *models.MedicationLog { return &models.MedicationLog{} }, logger),
	}
}

// Stream returns the collection with the given name, e.g. "medications".
func (c *Collections) Stream(name string) (Stream, bool) {
	for _, s := range []Stream{c.Workouts, c.Meals, c.CalorieLogs, c.Medications, c.MedicationLogs} {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}
