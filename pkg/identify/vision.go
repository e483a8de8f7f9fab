package identify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/jsonutil"
	"github.com/zenarog/zenarog-engine/pkg/llm"
	"github.com/zenarog/zenarog-engine/pkg/models"
)

// Disclaimer is attached to every insight shown to a user.
const Disclaimer = "This information is AI-generated and may be inaccurate. Always verify with a pharmacist or doctor before taking any medicine."

const insightPrompt = `You are a pharmacist's assistant. Identify the medicine in this photo of a tablet, strip, bottle or package.
Respond ONLY with one JSON object, no prose, in exactly this shape:
{
  "is_valid": true,
  "image_type": "tablet | strip | bottle | box | prescription | other",
  "identified": true,
  "confidence_score": 0.0,
  "needs_human_review": false,
  "medicine": {"brand_name": "", "generic_name": [], "strength": "", "dosage_form": "", "manufacturer": ""},
  "tablet_details": {"color": "", "shape": "", "imprint": "", "coating": "", "scored": false},
  "packaging_details": {"batch_number": "", "manufacturing_date": "", "expiry_date": "", "mrp": "", "strip_size": "", "storage_instructions": ""},
  "medical_info": {"uses": [], "how_it_works": "", "common_side_effects": [], "serious_side_effects": [], "warnings": []},
  "insights": {"summary": "", "safety_risk_level": "low | moderate | high", "overdose_risk": "", "addiction_potential": "", "when_to_see_doctor": ""},
  "risk_flags": {"is_expired": false, "is_schedule_h": false, "is_high_alert_medicine": false, "requires_prescription": false}
}
Use "Unknown" for brand_name when the medicine cannot be identified and set "identified" to false.
Copy any letters or numbers printed on a tablet into "imprint" exactly as seen.
confidence_score is between 0 and 1.`

// Extractor turns a scan input into a candidate record.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, input models.ScanInput) (*models.ScanCandidate, error)
}

// VisionExtractor asks a multimodal model to describe the medicine directly.
type VisionExtractor struct {
	client llm.VisionClient
	logger *zap.Logger
}

var _ Extractor = (*VisionExtractor)(nil)

// NewVisionExtractor creates an extractor backed by a vision model.
func NewVisionExtractor(client llm.VisionClient, logger *zap.Logger) *VisionExtractor {
	return &VisionExtractor{
		client: client,
		logger: logger.Named("vision-extractor"),
	}
}

// Name implements Extractor.
func (e *VisionExtractor) Name() string {
	return models.ScanSourceVision
}

// Extract sends the photo to the model and normalizes its reply. Provider
// failures are returned; an unreadable reply yields an unidentified candidate.
func (e *VisionExtractor) Extract(ctx context.Context, input models.ScanInput) (*models.ScanCandidate, error) {
	response, err := e.client.AnalyzeImage(ctx, insightPrompt, input.ImageDataURI)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}

	insight, ok := ParseInsight(response)
	if !ok {
		e.logger.Debug("Model reply carried no usable JSON",
			zap.String("model", e.client.GetModel()),
			zap.Int("reply_length", len(response)))
	}

	return &models.ScanCandidate{
		Source:      models.ScanSourceVision,
		RawText:     response,
		Insight:     insight,
		ImprintHint: input.Imprint,
	}, nil
}

// ParseInsight normalizes a model reply into an insight. Both the structured
// insight shape and the flat {drugName, dosage, ...} shape are accepted.
// The boolean is false when the reply held no JSON object at all, in which
// case the default unidentified insight is returned.
func ParseInsight(response string) (models.MedicineInsight, bool) {
	jsonStr, err := llm.ExtractObject(response)
	if err != nil {
		return DefaultInsight(), false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		return DefaultInsight(), false
	}

	if isFlatShape(fields) {
		var flat flatReply
		if err := unmarshalLenient(jsonStr, &flat); err != nil {
			return DefaultInsight(), false
		}
		return flat.toInsight(), true
	}

	var reply insightReply
	if err := unmarshalLenient(jsonStr, &reply); err != nil {
		return DefaultInsight(), false
	}
	return reply.toInsight(), true
}

// DefaultInsight is the insight used when nothing could be read.
func DefaultInsight() models.MedicineInsight {
	return models.MedicineInsight{
		Medicine: models.MedicineInfo{
			BrandName: models.UnknownName,
		},
		Insights: models.Insights{
			SafetyRiskLevel: models.RiskLevelLow,
		},
		NeedsHumanReview: true,
		Disclaimer:       Disclaimer,
	}
}

func isFlatShape(fields map[string]json.RawMessage) bool {
	if _, structured := fields["medicine"]; structured {
		return false
	}
	for _, key := range []string{"drugName", "dosage", "activeIngredients"} {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}

// unmarshalLenient decodes as much as it can. A nested value of the wrong
// kind is skipped instead of failing the whole reply.
func unmarshalLenient(jsonStr string, v any) error {
	err := json.Unmarshal([]byte(jsonStr), v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

type insightReply struct {
	IsValid          *jsonutil.Bool  `json:"is_valid"`
	ImageType        jsonutil.String `json:"image_type"`
	Identified       jsonutil.Bool   `json:"identified"`
	ConfidenceScore  jsonutil.Float  `json:"confidence_score"`
	NeedsHumanReview jsonutil.Bool   `json:"needs_human_review"`
	Medicine         struct {
		BrandName    jsonutil.String  `json:"brand_name"`
		GenericName  jsonutil.Strings `json:"generic_name"`
		Strength     jsonutil.String  `json:"strength"`
		DosageForm   jsonutil.String  `json:"dosage_form"`
		Route        jsonutil.String  `json:"route"`
		Manufacturer jsonutil.String  `json:"manufacturer"`
	} `json:"medicine"`
	TabletDetails struct {
		Color   jsonutil.String `json:"color"`
		Shape   jsonutil.String `json:"shape"`
		Imprint jsonutil.String `json:"imprint"`
		Coating jsonutil.String `json:"coating"`
		Scored  jsonutil.Bool   `json:"scored"`
	} `json:"tablet_details"`
	PackagingDetails struct {
		BatchNumber         jsonutil.String `json:"batch_number"`
		ManufacturingDate   jsonutil.String `json:"manufacturing_date"`
		ExpiryDate          jsonutil.String `json:"expiry_date"`
		MRP                 jsonutil.String `json:"mrp"`
		StripSize           jsonutil.String `json:"strip_size"`
		StorageInstructions jsonutil.String `json:"storage_instructions"`
	} `json:"packaging_details"`
	MedicalInfo struct {
		Uses               jsonutil.Strings `json:"uses"`
		HowItWorks         jsonutil.String  `json:"how_it_works"`
		CommonSideEffects  jsonutil.Strings `json:"common_side_effects"`
		SeriousSideEffects jsonutil.Strings `json:"serious_side_effects"`
		Warnings           jsonutil.Strings `json:"warnings"`
		Interactions       jsonutil.Strings `json:"interactions"`
	} `json:"medical_info"`
	Insights struct {
		Summary            jsonutil.String `json:"summary"`
		SafetyRiskLevel    jsonutil.String `json:"safety_risk_level"`
		OverdoseRisk       jsonutil.String `json:"overdose_risk"`
		AddictionPotential jsonutil.String `json:"addiction_potential"`
		WhenToSeeDoctor    jsonutil.String `json:"when_to_see_doctor"`
	} `json:"insights"`
	RiskFlags struct {
		IsExpired            jsonutil.Bool `json:"is_expired"`
		IsScheduleH          jsonutil.Bool `json:"is_schedule_h"`
		IsHighAlertMedicine  jsonutil.Bool `json:"is_high_alert_medicine"`
		RequiresPrescription jsonutil.Bool `json:"requires_prescription"`
	} `json:"risk_flags"`
	Disclaimer jsonutil.String `json:"disclaimer"`
}

func (r *insightReply) toInsight() models.MedicineInsight {
	insight := models.MedicineInsight{
		IsValid:          true,
		ImageType:        string(r.ImageType),
		Identified:       bool(r.Identified),
		ConfidenceScore:  normalizeConfidence(float64(r.ConfidenceScore)),
		NeedsHumanReview: bool(r.NeedsHumanReview),
		Medicine: models.MedicineInfo{
			BrandName:    orUnknown(string(r.Medicine.BrandName)),
			GenericName:  r.Medicine.GenericName,
			Strength:     string(r.Medicine.Strength),
			DosageForm:   string(r.Medicine.DosageForm),
			Route:        string(r.Medicine.Route),
			Manufacturer: string(r.Medicine.Manufacturer),
		},
		TabletDetails: models.TabletDetails{
			Color:   string(r.TabletDetails.Color),
			Shape:   string(r.TabletDetails.Shape),
			Imprint: string(r.TabletDetails.Imprint),
			Coating: string(r.TabletDetails.Coating),
			Scored:  bool(r.TabletDetails.Scored),
		},
		PackagingDetails: models.PackagingDetails{
			BatchNumber:         string(r.PackagingDetails.BatchNumber),
			ManufacturingDate:   string(r.PackagingDetails.ManufacturingDate),
			ExpiryDate:          string(r.PackagingDetails.ExpiryDate),
			MRP:                 string(r.PackagingDetails.MRP),
			StripSize:           string(r.PackagingDetails.StripSize),
			StorageInstructions: string(r.PackagingDetails.StorageInstructions),
		},
		MedicalInfo: models.MedicalInfo{
			Uses:               r.MedicalInfo.Uses,
			HowItWorks:         string(r.MedicalInfo.HowItWorks),
			CommonSideEffects:  r.MedicalInfo.CommonSideEffects,
			SeriousSideEffects: r.MedicalInfo.SeriousSideEffects,
			Warnings:           r.MedicalInfo.Warnings,
			Interactions:       r.MedicalInfo.Interactions,
		},
		Insights: models.Insights{
			Summary:            string(r.Insights.Summary),
			SafetyRiskLevel:    riskLevel(string(r.Insights.SafetyRiskLevel)),
			OverdoseRisk:       string(r.Insights.OverdoseRisk),
			AddictionPotential: string(r.Insights.AddictionPotential),
			WhenToSeeDoctor:    string(r.Insights.WhenToSeeDoctor),
		},
		RiskFlags: models.RiskFlags{
			IsExpired:            bool(r.RiskFlags.IsExpired),
			IsScheduleH:          bool(r.RiskFlags.IsScheduleH),
			IsHighAlertMedicine:  bool(r.RiskFlags.IsHighAlertMedicine),
			RequiresPrescription: bool(r.RiskFlags.RequiresPrescription),
		},
		Disclaimer: string(r.Disclaimer),
	}
	if r.IsValid != nil {
		insight.IsValid = bool(*r.IsValid)
	}
	if insight.Disclaimer == "" {
		insight.Disclaimer = Disclaimer
	}
	return insight
}

// flatReply is the older single-level reply shape.
type flatReply struct {
	DrugName          jsonutil.String `json:"drugName"`
	Dosage            jsonutil.String `json:"dosage"`
	Manufacturer      jsonutil.String `json:"manufacturer"`
	ActiveIngredients jsonutil.String `json:"activeIngredients"`
	Warnings          jsonutil.String `json:"warnings"`
}

func (r *flatReply) toInsight() models.MedicineInsight {
	insight := DefaultInsight()
	insight.IsValid = true

	brand := orUnknown(string(r.DrugName))
	insight.Medicine.BrandName = brand
	insight.Identified = !models.IsUnknown(brand)
	insight.Medicine.Strength = orUnknown(string(r.Dosage))
	insight.Medicine.Manufacturer = string(r.Manufacturer)
	if models.IsUnknown(insight.Medicine.Manufacturer) {
		insight.Medicine.Manufacturer = ""
	}

	if ingredients := string(r.ActiveIngredients); !models.IsUnknown(ingredients) {
		insight.Medicine.GenericName = []string{ingredients}
	}
	if w := string(r.Warnings); w != "" {
		insight.MedicalInfo.Warnings = []string{w}
	}
	return insight
}

func orUnknown(v string) string {
	if models.IsUnknown(v) {
		return models.UnknownName
	}
	return v
}

// normalizeConfidence maps percentages onto [0,1].
func normalizeConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1 && c <= 100:
		return c / 100
	case c > 100:
		return 1
	}
	return c
}

func riskLevel(v string) string {
	if v == "" {
		return models.RiskLevelLow
	}
	return v
}
