package models

import "time"

// Document kinds. Collection names are the plural form (see repositories.CollectionName).
const (
	KindWorkout       = "workout"
	KindMeal          = "meal"
	KindCalorieLog    = "calorie_log"
	KindMedication    = "medication"
	KindMedicationLog = "medication_log"
)

// DocumentKinds lists every persisted kind.
var DocumentKinds = []string{KindWorkout, KindMeal, KindCalorieLog, KindMedication, KindMedicationLog}

// Document is implemented by every persisted, user-owned record.
type Document interface {
	Meta() *DocumentMeta
}

// DocumentMeta holds the fields every stored document carries.
// Embed it in a model struct to make the model a Document.
type DocumentMeta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta returns the document metadata.
func (m *DocumentMeta) Meta() *DocumentMeta {
	return m
}
