package drugref

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/config"
)

type fakeOpenFDA struct {
	mu       sync.Mutex
	searches []string
	apiKeys  []string
	limits   []string
	// responses by search expression; missing entries answer 404
	responses map[string]string
	status    map[string]int
}

func (f *fakeOpenFDA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	f.mu.Lock()
	f.searches = append(f.searches, search)
	f.apiKeys = append(f.apiKeys, r.URL.Query().Get("api_key"))
	f.limits = append(f.limits, r.URL.Query().Get("limit"))
	f.mu.Unlock()

	if code, ok := f.status[search]; ok {
		w.WriteHeader(code)
		return
	}
	body, ok := f.responses[search]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, fake *fakeOpenFDA, apiKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(&config.OpenFDAConfig{BaseURL: srv.URL, APIKey: apiKey, Limit: 3}, srv.Client(), zap.NewNop())
}

const tylenolLabel = `{"results":[{
	"openfda":{"brand_name":["Tylenol"],"generic_name":["ACETAMINOPHEN"],"manufacturer_name":["Kenvue"],"route":["ORAL"],"product_type":["HUMAN OTC DRUG"]},
	"dosage_form":["TABLET"],
	"active_ingredient":["Acetaminophen 500 mg"],
	"indications_and_usage":["temporarily relieves minor aches and pains"],
	"warnings":["Liver warning"],
	"adverse_reactions":["rash"],
	"drug_interactions":["warfarin"]
}]}`

func TestSearchQueries_Order(t *testing.T) {
	assert.Equal(t, []string{
		`openfda.brand_name:"Tylenol 500"`,
		`openfda.generic_name:"Tylenol 500"`,
		`openfda.brand_name:Tylenol 500*`,
		`openfda.generic_name:Tylenol 500*`,
	}, SearchQueries("  Tylenol® 500! "))
}

func TestClient_Search_FallsThroughToGenericPrefix(t *testing.T) {
	fake := &fakeOpenFDA{
		responses: map[string]string{`openfda.generic_name:Tylenol*`: tylenolLabel},
	}
	client := newTestClient(t, fake, "")

	records, err := client.Search(context.Background(), "Tylenol")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, []string{
		`openfda.brand_name:"Tylenol"`,
		`openfda.generic_name:"Tylenol"`,
		`openfda.brand_name:Tylenol*`,
		`openfda.generic_name:Tylenol*`,
	}, fake.searches)
	assert.Equal(t, []string{"3", "3", "3", "3"}, fake.limits)

	rec := records[0]
	assert.Equal(t, []string{"Kenvue"}, rec.ManufacturerNames)
	assert.Equal(t, []string{"ACETAMINOPHEN"}, rec.GenericNames)
	assert.Equal(t, []string{"TABLET"}, rec.DosageForms)
	assert.Equal(t, []string{"ORAL"}, rec.Routes)
	assert.Equal(t, []string{"warfarin"}, rec.Interactions)
	require.Len(t, rec.ActiveIngredients, 1)
	assert.Equal(t, "Acetaminophen 500 mg", rec.ActiveIngredients[0].Name)
}

func TestClient_Search_StopsAtFirstMatch(t *testing.T) {
	fake := &fakeOpenFDA{
		responses: map[string]string{
			`openfda.brand_name:"Tylenol"`: tylenolLabel,
			`openfda.brand_name:Tylenol*`:  tylenolLabel,
		},
	}
	client := newTestClient(t, fake, "secret-key")

	records, err := client.Search(context.Background(), "Tylenol")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, []string{`openfda.brand_name:"Tylenol"`}, fake.searches)
	assert.Equal(t, []string{"secret-key"}, fake.apiKeys)
}

func TestClient_Search_SkipsFailedQueries(t *testing.T) {
	fake := &fakeOpenFDA{
		status:    map[string]int{`openfda.brand_name:"Tylenol"`: http.StatusInternalServerError},
		responses: map[string]string{`openfda.generic_name:"Tylenol"`: tylenolLabel},
	}
	client := newTestClient(t, fake, "")

	records, err := client.Search(context.Background(), "Tylenol")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, fake.searches, 2)
}

func TestClient_Search_NoMatchReturnsEmpty(t *testing.T) {
	fake := &fakeOpenFDA{}
	client := newTestClient(t, fake, "")

	records, err := client.Search(context.Background(), "Nothingazole")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, fake.searches, 4)
}

func TestClient_Search_UnknownNameMakesNoRequest(t *testing.T) {
	for _, name := range []string{"", "  ", "Unknown", "unknown", "!!"} {
		fake := &fakeOpenFDA{}
		client := newTestClient(t, fake, "")

		records, err := client.Search(context.Background(), name)
		require.NoError(t, err)
		assert.Nil(t, records, name)
		assert.Empty(t, fake.searches, name)
	}
}

func TestClient_Search_CancelledContext(t *testing.T) {
	fake := &fakeOpenFDA{}
	client := newTestClient(t, fake, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "Tylenol")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.searches)
}

func TestNewClient_TimeoutFromConfig(t *testing.T) {
	unbounded := NewClient(&config.OpenFDAConfig{}, nil, zap.NewNop())
	assert.Zero(t, unbounded.httpClient.Timeout)
	assert.Equal(t, 3, unbounded.limit)

	bounded := NewClient(&config.OpenFDAConfig{Timeout: 5 * time.Second}, nil, zap.NewNop())
	assert.Equal(t, 5*time.Second, bounded.httpClient.Timeout)
}
