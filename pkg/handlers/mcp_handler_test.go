package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/drugref"
	"github.com/zenarog/zenarog-engine/pkg/mcp"
	"github.com/zenarog/zenarog-engine/pkg/mcp/tools"
)

func newMCPMux(t *testing.T) *http.ServeMux {
	t.Helper()
	logger := zap.NewNop()
	mcpServer := mcp.NewServer("test-version", &tools.MedicationToolDeps{Dictionary: drugref.DefaultDictionary()}, logger)

	mux := http.NewServeMux()
	NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, newTestAuthMiddleware())
	return mux
}

func postMCP(mux *http.ServeMux, body, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	return serve(mux, req, userID)
}

func TestMCPHandler_ToolsList(t *testing.T) {
	mux := newMCPMux(t)

	rec := postMCP(mux, `{"jsonrpc":"2.0","method":"tools/list","id":1}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Result  struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "2.0", response.JSONRPC)
	assert.Equal(t, 1, response.ID)

	names := make([]string, 0, len(response.Result.Tools))
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"health", "parse_label_text", "lookup_imprint"}, names)
}

func TestMCPHandler_ToolsCall(t *testing.T) {
	mux := newMCPMux(t)

	rec := postMCP(mux, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"lookup_imprint","arguments":{"imprint":"CROCIN"}},"id":2}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.NotEmpty(t, response.Result.Content)
	assert.Contains(t, response.Result.Content[0].Text, `"found":true`)
}

func TestMCPHandler_RequiresAuth(t *testing.T) {
	mux := newMCPMux(t)

	rec := postMCP(mux, `{"jsonrpc":"2.0","method":"tools/list","id":1}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMCPHandler_RejectsNonPOST(t *testing.T) {
	mux := newMCPMux(t)

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/mcp", nil), "user-1")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}
