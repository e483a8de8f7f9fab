package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/drugref"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/ocr"
)

// ImprintLookup finds a regional brand by tablet imprint.
type ImprintLookup interface {
	LookupImprint(imprint string) (*models.BrandDictionaryEntry, bool)
}

// MedicationToolDeps contains dependencies for the medication reference tools.
type MedicationToolDeps struct {
	Labels     drugref.Searcher
	Dictionary ImprintLookup
	Logger     *zap.Logger
}

type drugLabelResult struct {
	Query   string                   `json:"query"`
	Results []models.ReferenceRecord `json:"results"`
}

type imprintResult struct {
	Imprint string                       `json:"imprint"`
	Found   bool                         `json:"found"`
	Entry   *models.BrandDictionaryEntry `json:"entry,omitempty"`
}

// RegisterMedicationTools adds the label parsing and reference lookup tools.
// lookup_drug_label is only registered when deps.Labels is set.
func RegisterMedicationTools(s *server.MCPServer, deps *MedicationToolDeps) {
	registerParseLabelTextTool(s)
	if deps.Dictionary != nil {
		registerLookupImprintTool(s, deps)
	}
	if deps.Labels != nil {
		registerLookupDrugLabelTool(s, deps)
	}
}

func registerParseLabelTextTool(s *server.MCPServer) {
	tool := mcp.NewTool(
		"parse_label_text",
		mcp.WithDescription("Extracts drug name, dosage, manufacturer, ingredients and warnings from OCR text of a medicine label. "+
			"Fields that cannot be found are returned as placeholder values."),
		mcp.WithString(
			"text",
			mcp.Required(),
			mcp.Description("Raw text read from the label"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return NewErrorResult("invalid_parameters", "text is required"), nil
		}
		return newJSONResult(ocr.ParseLabelText(text))
	})
}

func registerLookupImprintTool(s *server.MCPServer, deps *MedicationToolDeps) {
	tool := mcp.NewTool(
		"lookup_imprint",
		mcp.WithDescription("Looks up a regional brand by the code imprinted on a tablet, e.g. \"DOLO 650\"."),
		mcp.WithString(
			"imprint",
			mcp.Required(),
			mcp.Description("Imprint text as read from the tablet"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		imprint, err := req.RequireString("imprint")
		if err != nil || drugref.NormalizeImprint(imprint) == "" {
			return NewErrorResult("invalid_parameters", "imprint is required"), nil
		}
		entry, found := deps.Dictionary.LookupImprint(imprint)
		return newJSONResult(imprintResult{Imprint: imprint, Found: found, Entry: entry})
	})
}

func registerLookupDrugLabelTool(s *server.MCPServer, deps *MedicationToolDeps) {
	tool := mcp.NewTool(
		"lookup_drug_label",
		mcp.WithDescription("Searches the openFDA drug label database by brand or generic name and returns "+
			"indications, warnings, adverse reactions and interactions."),
		mcp.WithString(
			"name",
			mcp.Required(),
			mcp.Description("Brand or generic medicine name"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil || drugref.CleanName(name) == "" {
			return NewErrorResult("invalid_parameters", "name is required"), nil
		}

		records, err := deps.Labels.Search(ctx, name)
		if err != nil {
			deps.Logger.Error("Drug label lookup failed", zap.String("name", name), zap.Error(err))
			return nil, fmt.Errorf("drug label lookup failed: %w", err)
		}
		if len(records) == 0 {
			return NewErrorResult("not_found", fmt.Sprintf("no drug label found for %q", name)), nil
		}
		return newJSONResult(drugLabelResult{Query: name, Results: records})
	})
}
