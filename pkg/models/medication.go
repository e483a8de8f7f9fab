package models

import (
	"strings"
	"time"
)

// UnknownName is the display name used when identification fails at every stage.
const UnknownName = "Unknown"

// Medication sources.
const (
	MedicationSourceManual = "manual"
	MedicationSourceScan   = "scan"
)

// Frequencies offered by the medication form. Other values are stored as typed.
const (
	FrequencyOnceDaily   = "once_daily"
	FrequencyTwiceDaily  = "twice_daily"
	FrequencyThriceDaily = "thrice_daily"
	FrequencyAsNeeded    = "as_needed"
	FrequencyWeekly      = "weekly"
)

// Risk levels reported by the identification pipeline.
const (
	RiskLevelLow      = "low"
	RiskLevelModerate = "moderate"
	RiskLevelHigh     = "high"
)

// MedicationRecord is a user's medication, entered by hand or produced by a scan.
// Each edit overwrites the document in place.
type MedicationRecord struct {
	DocumentMeta

	Source string `json:"source"`

	// User-entered schedule fields.
	Name            string   `json:"name,omitempty"`
	Dosage          string   `json:"dosage,omitempty"`
	Frequency       string   `json:"frequency,omitempty"`
	Times           []string `json:"times,omitempty"` // HH:MM, not validated
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	AddedToCalendar bool     `json:"added_to_calendar"`

	// Identification fields, populated from a scan.
	BrandName            string     `json:"brand_name,omitempty"`
	GenericName          []string   `json:"generic_name,omitempty"`
	Strength             string     `json:"strength,omitempty"`
	DosageForm           string     `json:"dosage_form,omitempty"`
	Manufacturer         string     `json:"manufacturer,omitempty"`
	Imprint              string     `json:"imprint,omitempty"`
	Uses                 []string   `json:"uses,omitempty"`
	Warnings             []string   `json:"warnings,omitempty"`
	SideEffects          []string   `json:"side_effects,omitempty"`
	Interactions         []string   `json:"interactions,omitempty"`
	RiskLevel            string     `json:"risk_level,omitempty"`
	RequiresPrescription bool       `json:"requires_prescription"`
	Identified           bool       `json:"identified"`
	Confidence           float64    `json:"confidence"`
	ScannedAt            *time.Time `json:"scanned_at,omitempty"`
}

// DisplayName returns the best available name, never empty.
func (m *MedicationRecord) DisplayName() string {
	if name := strings.TrimSpace(m.Name); name != "" {
		return name
	}
	if brand := strings.TrimSpace(m.BrandName); brand != "" && !IsUnknown(brand) {
		return brand
	}
	if len(m.GenericName) > 0 {
		return strings.Join(m.GenericName, ", ")
	}
	return UnknownName
}

// DisplayDosage returns the user dosage, falling back to the scanned strength.
func (m *MedicationRecord) DisplayDosage() string {
	if m.Dosage != "" {
		return m.Dosage
	}
	return m.Strength
}

// MedicationLog records whether one scheduled dose was taken on a date.
type MedicationLog struct {
	DocumentMeta

	MedicationID   string     `json:"medication_id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage,omitempty"`
	ScheduledTime  string     `json:"scheduled_time"`
	Date           string     `json:"date"` // YYYY-MM-DD
	Taken          bool       `json:"taken"`
	TakenAt        *time.Time `json:"taken_at,omitempty"`
}

// CalendarEvent is a recurring reminder derived from a medication schedule.
type CalendarEvent struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	Recurrence  string     `json:"recurrence"`
	Until       *time.Time `json:"until,omitempty"`
}

// IsUnknown reports whether a value is empty or the "Unknown" sentinel.
func IsUnknown(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, UnknownName)
}
