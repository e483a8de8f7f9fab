package models

import "strings"

// Candidate sources.
const (
	ScanSourceVision = "vision"
	ScanSourceOCR    = "ocr"
)

// MedicineInsight is the structured result of identifying a medicine from a photo.
type MedicineInsight struct {
	IsValid          bool             `json:"is_valid"`
	ImageType        string           `json:"image_type"`
	Identified       bool             `json:"identified"`
	ConfidenceScore  float64          `json:"confidence_score"`
	NeedsHumanReview bool             `json:"needs_human_review"`
	Medicine         MedicineInfo     `json:"medicine"`
	TabletDetails    TabletDetails    `json:"tablet_details"`
	PackagingDetails PackagingDetails `json:"packaging_details"`
	MedicalInfo      MedicalInfo      `json:"medical_info"`
	Insights         Insights         `json:"insights"`
	RiskFlags        RiskFlags        `json:"risk_flags"`
	Disclaimer       string           `json:"disclaimer"`
}

type MedicineInfo struct {
	BrandName    string   `json:"brand_name"`
	GenericName  []string `json:"generic_name"`
	Strength     string   `json:"strength"`
	DosageForm   string   `json:"dosage_form"`
	Route        string   `json:"route,omitempty"`
	Manufacturer string   `json:"manufacturer"`
}

type TabletDetails struct {
	Color   string `json:"color"`
	Shape   string `json:"shape"`
	Imprint string `json:"imprint"`
	Coating string `json:"coating"`
	Scored  bool   `json:"scored"`
}

type PackagingDetails struct {
	BatchNumber         string `json:"batch_number"`
	ManufacturingDate   string `json:"manufacturing_date"`
	ExpiryDate          string `json:"expiry_date"`
	MRP                 string `json:"mrp"`
	StripSize           string `json:"strip_size"`
	StorageInstructions string `json:"storage_instructions"`
}

type MedicalInfo struct {
	Uses               []string `json:"uses"`
	HowItWorks         string   `json:"how_it_works"`
	CommonSideEffects  []string `json:"common_side_effects"`
	SeriousSideEffects []string `json:"serious_side_effects"`
	Warnings           []string `json:"warnings"`
	Interactions       []string `json:"interactions,omitempty"`
}

type Insights struct {
	Summary            string `json:"summary"`
	SafetyRiskLevel    string `json:"safety_risk_level"`
	OverdoseRisk       string `json:"overdose_risk"`
	AddictionPotential string `json:"addiction_potential"`
	WhenToSeeDoctor    string `json:"when_to_see_doctor"`
}

type RiskFlags struct {
	IsExpired            bool `json:"is_expired"`
	IsScheduleH          bool `json:"is_schedule_h"`
	IsHighAlertMedicine  bool `json:"is_high_alert_medicine"`
	RequiresPrescription bool `json:"requires_prescription"`
}

// ScanInput is one identification request. Either an image (data URI) or
// recognized text must be present. Imprint is an optional user hint.
type ScanInput struct {
	ImageDataURI string `json:"image,omitempty"`
	OCRText      string `json:"ocr_text,omitempty"`
	Imprint      string `json:"imprint,omitempty"`
}

// ScanCandidate is the not-yet-verified output of one extraction attempt.
// It is never persisted.
type ScanCandidate struct {
	Source  string
	RawText string
	Insight MedicineInsight

	// ImprintHint is the imprint typed by the user, used when the model saw none.
	ImprintHint string

	// Reference is the label record merged into Insight, if any.
	Reference *ReferenceRecord
}

// HasBrand reports whether the candidate carries a usable brand name.
func (c *ScanCandidate) HasBrand() bool {
	return !IsUnknown(c.Insight.Medicine.BrandName)
}

// Imprint returns the imprint read from the tablet, falling back to the user's hint.
func (c *ScanCandidate) Imprint() string {
	if imprint := strings.TrimSpace(c.Insight.TabletDetails.Imprint); imprint != "" {
		return imprint
	}
	return strings.TrimSpace(c.ImprintHint)
}

// ScanResult is the merged outcome of the identification pipeline.
type ScanResult struct {
	Insight    MedicineInsight  `json:"insight"`
	Source     string           `json:"source"`
	ResolvedBy string           `json:"resolved_by,omitempty"`
	RawText    string           `json:"raw_text,omitempty"`
	Reference  *ReferenceRecord `json:"reference,omitempty"`
}
