package models

import "time"

// DoseEntry is one scheduled dose of a medication on a date.
type DoseEntry struct {
	ID             string     `json:"id"`
	LogID          string     `json:"log_id,omitempty"`
	MedicationID   string     `json:"medication_id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage,omitempty"`
	ScheduledTime  string     `json:"scheduled_time"`
	Date           string     `json:"date"`
	Taken          bool       `json:"taken"`
	TakenAt        *time.Time `json:"taken_at,omitempty"`
}

// DaySummary is the adherence view of one day.
type DaySummary struct {
	Date     string      `json:"date"`
	Doses    []DoseEntry `json:"doses"`
	Taken    int         `json:"taken"`
	Total    int         `json:"total"`
	Streak   int         `json:"streak"`
	Progress float64     `json:"progress"`
}
