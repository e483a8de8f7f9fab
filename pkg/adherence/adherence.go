// Package adherence derives per-day dose schedules and intake statistics
// from medications and their intake logs.
package adherence

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/zenarog/zenarog-engine/pkg/models"
)

// DateLayout is the date format used by schedules and logs.
const DateLayout = "2006-01-02"

// streakScale maps the taken ratio onto a seven-point range.
const streakScale = 7

// ActiveOn reports whether a medication is scheduled on date. Empty or
// unparseable bounds are treated as open.
func ActiveOn(med *models.MedicationRecord, date string) bool {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return true
	}
	if start, err := time.Parse(DateLayout, med.StartDate); err == nil && day.Before(start) {
		return false
	}
	if end, err := time.Parse(DateLayout, med.EndDate); err == nil && day.After(end) {
		return false
	}
	return true
}

// NormalizeTime is the canonical form of a scheduled dose time. Logs and
// schedules are matched on it.
func NormalizeTime(scheduledTime string) string {
	return strings.TrimSpace(scheduledTime)
}

// DoseID is the identifier of a dose that has no intake log yet.
func DoseID(medicationID, scheduledTime string) string {
	return medicationID + "-" + scheduledTime
}

// BuildDay lists every dose scheduled on date, sorted by time. A dose is
// taken when a log for the same medication, time and date says so. Ties keep
// medication order.
func BuildDay(date string, meds []*models.MedicationRecord, logs []*models.MedicationLog) []models.DoseEntry {
	type logKey struct{ medicationID, time string }
	byKey := make(map[logKey]*models.MedicationLog, len(logs))
	for _, l := range logs {
		if l.Date != date {
			continue
		}
		k := logKey{l.MedicationID, NormalizeTime(l.ScheduledTime)}
		if _, seen := byKey[k]; !seen {
			byKey[k] = l
		}
	}

	doses := make([]models.DoseEntry, 0)
	for _, med := range meds {
		if !ActiveOn(med, date) {
			continue
		}
		for _, raw := range med.Times {
			t := NormalizeTime(raw)
			if t == "" {
				continue
			}
			dose := models.DoseEntry{
				ID:             DoseID(med.ID, t),
				MedicationID:   med.ID,
				MedicationName: med.DisplayName(),
				Dosage:         med.DisplayDosage(),
				ScheduledTime:  t,
				Date:           date,
			}
			if l, ok := byKey[logKey{med.ID, t}]; ok {
				dose.ID = l.ID
				dose.LogID = l.ID
				dose.Taken = l.Taken
				dose.TakenAt = l.TakenAt
			}
			doses = append(doses, dose)
		}
	}

	slices.SortStableFunc(doses, func(a, b models.DoseEntry) int {
		return cmp.Compare(a.ScheduledTime, b.ScheduledTime)
	})
	return doses
}

// Summarize computes the day's statistics. Progress is a percentage and is
// zero when nothing is scheduled.
func Summarize(date string, doses []models.DoseEntry) models.DaySummary {
	taken := 0
	for _, d := range doses {
		if d.Taken {
			taken++
		}
	}
	total := len(doses)

	summary := models.DaySummary{
		Date:   date,
		Doses:  doses,
		Taken:  taken,
		Total:  total,
		Streak: int(math.Floor(float64(taken) / float64(max(total, 1)) * streakScale)),
	}
	if total > 0 {
		summary.Progress = float64(taken) / float64(total) * 100
	}
	return summary
}

// Day is BuildDay followed by Summarize.
func Day(date string, meds []*models.MedicationRecord, logs []*models.MedicationLog) models.DaySummary {
	return Summarize(date, BuildDay(date, meds, logs))
}
