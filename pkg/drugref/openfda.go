// Package drugref looks up reference data for identified medicines: the
// openFDA drug label API and a static dictionary of regional brands keyed by
// tablet imprint.
package drugref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/config"
	"github.com/zenarog/zenarog-engine/pkg/models"
)

// nonWordChars matches everything that cannot appear in an openFDA search term.
var nonWordChars = regexp.MustCompile(`[^\w\s]`)

// Searcher finds drug label records for a medicine name.
type Searcher interface {
	Search(ctx context.Context, name string) ([]models.ReferenceRecord, error)
}

var _ Searcher = (*Client)(nil)

// Client queries the openFDA drug label endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	limit      int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an openFDA client. A nil httpClient gets a client whose
// per-request timeout is cfg.Timeout; zero leaves requests bounded only by
// the caller's context.
func NewClient(cfg *config.OpenFDAConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 3
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limit:      limit,
		httpClient: httpClient,
		logger:     logger.Named("openfda"),
	}
}

// CleanName trims a medicine name and drops characters openFDA cannot search on.
func CleanName(name string) string {
	return nonWordChars.ReplaceAllString(strings.TrimSpace(name), "")
}

// SearchQueries returns the openFDA search expressions tried for a name, in order:
// exact brand, exact generic, brand prefix, generic prefix.
func SearchQueries(name string) []string {
	clean := CleanName(name)
	return []string{
		fmt.Sprintf(`openfda.brand_name:"%s"`, clean),
		fmt.Sprintf(`openfda.generic_name:"%s"`, clean),
		fmt.Sprintf(`openfda.brand_name:%s*`, clean),
		fmt.Sprintf(`openfda.generic_name:%s*`, clean),
	}
}

// Search returns the label records of the first query that matches anything.
// Failed queries are logged and skipped. An empty or "Unknown" name makes no request.
func (c *Client) Search(ctx context.Context, name string) ([]models.ReferenceRecord, error) {
	if models.IsUnknown(name) || CleanName(name) == "" {
		return nil, nil
	}

	for _, query := range SearchQueries(name) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := c.query(ctx, query)
		if err != nil {
			c.logger.Debug("openFDA query failed",
				zap.String("query", query),
				zap.Error(err))
			continue
		}
		if len(records) > 0 {
			c.logger.Debug("openFDA match",
				zap.String("query", query),
				zap.Int("results", len(records)))
			return records, nil
		}
	}

	return nil, nil
}

// labelResponse is the subset of the openFDA label payload we read.
type labelResponse struct {
	Results []labelResult `json:"results"`
}

type labelResult struct {
	OpenFDA struct {
		BrandName        []string `json:"brand_name"`
		GenericName      []string `json:"generic_name"`
		ManufacturerName []string `json:"manufacturer_name"`
		ProductType      []string `json:"product_type"`
		DosageForm       []string `json:"dosage_form"`
		Route            []string `json:"route"`
	} `json:"openfda"`
	DosageForm          []string                  `json:"dosage_form"`
	Route               []string                  `json:"route"`
	ActiveIngredients   []models.ActiveIngredient `json:"active_ingredients"`
	ActiveIngredient    []string                  `json:"active_ingredient"`
	Purpose             []string                  `json:"purpose"`
	IndicationsAndUsage []string                  `json:"indications_and_usage"`
	Warnings            []string                  `json:"warnings"`
	AdverseReactions    []string                  `json:"adverse_reactions"`
	DrugInteractions    []string                  `json:"drug_interactions"`
}

func (c *Client) query(ctx context.Context, search string) ([]models.ReferenceRecord, error) {
	params := url.Values{}
	params.Set("search", search)
	params.Set("limit", strconv.Itoa(c.limit))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call openFDA: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// openFDA answers 404 when nothing matches.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openFDA returned status %d", resp.StatusCode)
	}

	var parsed labelResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	records := make([]models.ReferenceRecord, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		records = append(records, r.toRecord())
	}
	return records, nil
}

func (r *labelResult) toRecord() models.ReferenceRecord {
	rec := models.ReferenceRecord{
		BrandNames:        r.OpenFDA.BrandName,
		GenericNames:      r.OpenFDA.GenericName,
		ManufacturerNames: r.OpenFDA.ManufacturerName,
		ProductTypes:      r.OpenFDA.ProductType,
		DosageForms:       firstNonEmpty(r.DosageForm, r.OpenFDA.DosageForm),
		Routes:            firstNonEmpty(r.Route, r.OpenFDA.Route),
		ActiveIngredients: r.ActiveIngredients,
		Purpose:           r.Purpose,
		Indications:       r.IndicationsAndUsage,
		Warnings:          r.Warnings,
		AdverseReactions:  r.AdverseReactions,
		Interactions:      r.DrugInteractions,
	}
	// Narrative labels carry ingredients as free text only.
	if len(rec.ActiveIngredients) == 0 {
		for _, ingredient := range r.ActiveIngredient {
			rec.ActiveIngredients = append(rec.ActiveIngredients, models.ActiveIngredient{Name: ingredient})
		}
	}
	return rec
}

func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}
