package identify

import (
	"context"
	"fmt"

	"github.com/zenarog/zenarog-engine/pkg/drugref"
	"github.com/zenarog/zenarog-engine/pkg/models"
)

// Resolver names reported in ScanResult.ResolvedBy.
const (
	ResolverReference = "reference"
	ResolverImprint   = "imprint"
)

// Resolver enriches or corrects a candidate from one data source.
type Resolver interface {
	Name() string

	// Applies reports whether the resolver should run for the candidate.
	Applies(candidate *models.ScanCandidate) bool

	// Resolve updates the candidate in place. It reports true when the
	// source matched the candidate.
	Resolve(ctx context.Context, candidate *models.ScanCandidate) (bool, error)
}

// ReferenceResolver fills empty candidate fields from the drug label database.
type ReferenceResolver struct {
	searcher drugref.Searcher
}

var _ Resolver = (*ReferenceResolver)(nil)

func NewReferenceResolver(searcher drugref.Searcher) *ReferenceResolver {
	return &ReferenceResolver{searcher: searcher}
}

func (r *ReferenceResolver) Name() string { return ResolverReference }

// Applies is true for identified candidates with a known brand name.
func (r *ReferenceResolver) Applies(c *models.ScanCandidate) bool {
	return c.Insight.Identified && c.HasBrand()
}

// Resolve looks up the brand and merges the first record. Fields the
// candidate already carries are never overwritten.
func (r *ReferenceResolver) Resolve(ctx context.Context, c *models.ScanCandidate) (bool, error) {
	records, err := r.searcher.Search(ctx, c.Insight.Medicine.BrandName)
	if err != nil {
		return false, fmt.Errorf("search drug labels: %w", err)
	}
	if len(records) == 0 {
		return false, nil
	}

	rec := records[0]
	MergeReference(&c.Insight, &rec)
	c.Reference = &rec
	return true, nil
}

// MergeReference copies reference fields into the insight where the insight
// has nothing of its own.
func MergeReference(insight *models.MedicineInsight, rec *models.ReferenceRecord) {
	med := &insight.Medicine
	if med.Manufacturer == "" {
		med.Manufacturer = first(rec.ManufacturerNames)
	}
	if len(med.GenericName) == 0 {
		med.GenericName = rec.GenericNames
	}
	if med.DosageForm == "" {
		med.DosageForm = first(rec.DosageForms)
	}
	if med.Route == "" {
		med.Route = first(rec.Routes)
	}

	info := &insight.MedicalInfo
	if len(info.Uses) == 0 {
		info.Uses = rec.Indications
	}
	if len(info.Warnings) == 0 {
		info.Warnings = rec.Warnings
	}
	if len(info.CommonSideEffects) == 0 {
		info.CommonSideEffects = rec.AdverseReactions
	}
	if len(info.Interactions) == 0 {
		info.Interactions = rec.Interactions
	}
}

// ImprintResolver identifies unnamed tablets from the brand dictionary.
type ImprintResolver struct {
	dictionary      *drugref.Dictionary
	confidenceFloor float64
}

var _ Resolver = (*ImprintResolver)(nil)

// NewImprintResolver creates a resolver that raises the confidence of
// dictionary hits to at least confidenceFloor.
func NewImprintResolver(dictionary *drugref.Dictionary, confidenceFloor float64) *ImprintResolver {
	return &ImprintResolver{
		dictionary:      dictionary,
		confidenceFloor: confidenceFloor,
	}
}

func (r *ImprintResolver) Name() string { return ResolverImprint }

// Applies is true when the brand is missing or unconfirmed and an imprint is known.
func (r *ImprintResolver) Applies(c *models.ScanCandidate) bool {
	if c.HasBrand() && c.Insight.Identified {
		return false
	}
	return c.Imprint() != ""
}

// Resolve replaces the identification with the dictionary entry on a hit.
func (r *ImprintResolver) Resolve(_ context.Context, c *models.ScanCandidate) (bool, error) {
	entry, ok := r.dictionary.LookupImprint(c.Imprint())
	if !ok {
		return false, nil
	}

	c.Insight.Identified = true
	c.Insight.ConfidenceScore = max(c.Insight.ConfidenceScore, r.confidenceFloor)
	c.Insight.Medicine.BrandName = entry.BrandName
	c.Insight.Medicine.GenericName = entry.GenericName
	if entry.Strength != "" {
		c.Insight.Medicine.Strength = entry.Strength
	}
	c.Insight.MedicalInfo.Uses = entry.Uses
	if c.Insight.TabletDetails.Imprint == "" {
		c.Insight.TabletDetails.Imprint = c.Imprint()
	}
	return true, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
