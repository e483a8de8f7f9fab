package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/adherence"
	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
)

// MaxReportDays is the longest date range a medication report may cover.
const MaxReportDays = 31

// ReportService renders printable medication reports.
type ReportService interface {
	// MedicationReport renders the user's medications and per-day adherence
	// between from and to inclusive (YYYY-MM-DD) as a PDF. An empty from
	// defaults to six days before to; an empty to defaults to today.
	MedicationReport(ctx context.Context, userID, from, to string) ([]byte, error)
}

type reportService struct {
	medications *repositories.Collection[*models.MedicationRecord]
	logs        *repositories.Collection[*models.MedicationLog]
	logger      *zap.Logger
	now         func() time.Time
}

var _ ReportService = (*reportService)(nil)

// NewReportService creates a report service.
func NewReportService(
	medications *repositories.Collection[*models.MedicationRecord],
	logs *repositories.Collection[*models.MedicationLog],
	logger *zap.Logger,
) ReportService {
	return &reportService{
		medications: medications,
		logs:        logs,
		logger:      logger.Named("reports"),
		now:         time.Now,
	}
}

func (s *reportService) MedicationReport(ctx context.Context, userID, from, to string) ([]byte, error) {
	to, err := resolveDate(to, s.now)
	if err != nil {
		return nil, err
	}
	end, _ := time.Parse(adherence.DateLayout, to)
	start := end.AddDate(0, 0, -6)
	if from != "" {
		start, err = time.Parse(adherence.DateLayout, from)
		if err != nil {
			return nil, fmt.Errorf("%w: from must be YYYY-MM-DD", apperrors.ErrInvalidInput)
		}
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: from is after to", apperrors.ErrInvalidInput)
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > MaxReportDays {
		return nil, fmt.Errorf("%w: report covers %d days, at most %d allowed", apperrors.ErrInvalidInput, days, MaxReportDays)
	}

	meds, err := s.medications.List(ctx, repositories.Query{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	logs, err := s.logs.List(ctx, repositories.Query{
		UserID: userID,
		Where: []repositories.Condition{
			{Field: "date", Op: repositories.OpGreaterOrEqual, Value: start.Format(adherence.DateLayout)},
			{Field: "date", Op: repositories.OpLessOrEqual, Value: to},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list dose logs: %w", err)
	}

	var days []models.DaySummary
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, adherence.Day(d.Format(adherence.DateLayout), meds, logs))
	}

	pdf, err := renderMedicationReport(meds, days, s.now())
	if err != nil {
		return nil, fmt.Errorf("render medication report: %w", err)
	}

	s.logger.Info("Medication report rendered",
		zap.String("user_id", userID),
		zap.Int("medications", len(meds)),
		zap.Int("days", len(days)),
		zap.Int("bytes", len(pdf)))
	return pdf, nil
}

func renderMedicationReport(meds []*models.MedicationRecord, days []models.DaySummary, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Medication Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	period := "No days selected"
	if len(days) > 0 {
		period = days[0].Date + " to " + days[len(days)-1].Date
	}
	pdf.CellFormat(0, 5, "Period: "+period, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Generated: "+generatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Medications", "", 1, "L", false, 0, "")

	medCols := []float64{60, 35, 35, 50}
	reportHeader(pdf, medCols, "Name", "Dosage", "Frequency", "Times")
	pdf.SetFont("Arial", "", 9)
	if len(meds) == 0 {
		pdf.CellFormat(0, 6, "No medications recorded.", "", 1, "L", false, 0, "")
	}
	for _, m := range meds {
		reportRow(pdf, medCols,
			tr(m.DisplayName()),
			tr(m.DisplayDosage()),
			tr(strings.ReplaceAll(m.Frequency, "_", " ")),
			tr(strings.Join(m.Times, ", ")))
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Adherence", "", 1, "L", false, 0, "")

	dayCols := []float64{45, 45, 45, 45}
	reportHeader(pdf, dayCols, "Date", "Taken", "Scheduled", "Progress")
	pdf.SetFont("Arial", "", 9)
	var taken, total int
	for _, d := range days {
		taken += d.Taken
		total += d.Total
		reportRow(pdf, dayCols,
			d.Date,
			fmt.Sprintf("%d", d.Taken),
			fmt.Sprintf("%d", d.Total),
			fmt.Sprintf("%.0f%%", d.Progress))
	}

	overall := 0.0
	if total > 0 {
		overall = float64(taken) / float64(total) * 100
	}
	pdf.SetFont("Arial", "B", 9)
	reportRow(pdf, dayCols, "Overall", fmt.Sprintf("%d", taken), fmt.Sprintf("%d", total), fmt.Sprintf("%.0f%%", overall))

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(0, 4, "This report is generated from self-reported dose logs. Please consult a qualified healthcare professional before changing any medication.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportHeader(pdf *gofpdf.Fpdf, widths []float64, titles ...string) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range titles {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func reportRow(pdf *gofpdf.Fpdf, widths []float64, cells ...string) {
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}
