package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveMCP(t *testing.T, logger *zap.Logger, reqBody, respBody string) *httptest.ResponseRecorder {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(respBody))
	})
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()
	MCPRequestLogger(logger)(handler).ServeHTTP(rec, req)
	return rec
}

func TestMCPRequestLogger(t *testing.T) {
	t.Run("logs successful tool call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"lookup_imprint","arguments":{"imprint":"DOLO 650"}}}`,
			`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}]}}`)

		require.Equal(t, 2, logs.Len())
		requestLog := logs.All()[0]
		assert.Equal(t, "MCP request", requestLog.Message)
		assert.Equal(t, "tools/call", requestLog.ContextMap()["method"])
		assert.Equal(t, "lookup_imprint", requestLog.ContextMap()["tool"])
		assert.Equal(t, "MCP response success", logs.All()[1].Message)
	})

	t.Run("logs tool errors", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"lookup_drug_label","arguments":{"name":"x"}}}`,
			`{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"openfda unavailable"}}`)

		require.Equal(t, 2, logs.Len())
		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response error", responseLog.Message)
		assert.Equal(t, int64(-32603), responseLog.ContextMap()["error_code"])
		assert.Equal(t, "openfda unavailable", responseLog.ContextMap()["error_message"])
	})

	t.Run("passes through with nil logger", func(t *testing.T) {
		rec := serveMCP(t, nil, `{}`, `{}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tolerates malformed JSON", func(t *testing.T) {
		core, _ := observer.New(zapcore.DebugLevel)
		rec := serveMCP(t, zap.New(core), `{invalid json`, `not json`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "not json", rec.Body.String())
	})
}

func TestSanitizeArguments(t *testing.T) {
	t.Run("redacts sensitive keywords case-insensitively", func(t *testing.T) {
		result := sanitizeArguments(map[string]interface{}{
			"password":     "secret",
			"Api_Key":      "abc123",
			"AccessToken":  "xyz789",
			"normal_field": "visible",
		})

		assert.Equal(t, "[REDACTED]", result["password"])
		assert.Equal(t, "[REDACTED]", result["Api_Key"])
		assert.Equal(t, "[REDACTED]", result["AccessToken"])
		assert.Equal(t, "visible", result["normal_field"])
	})

	t.Run("redacts inline images and truncates long text", func(t *testing.T) {
		result := sanitizeArguments(map[string]interface{}{
			"image": "data:image/jpeg;base64,/9j/4AAQSkZJRgABAQ==",
			"text":  strings.Repeat("x", 250),
		})

		assert.Equal(t, "data:[REDACTED]", result["image"])
		text := result["text"].(string)
		assert.Len(t, text, 203)
		assert.True(t, strings.HasSuffix(text, "..."))
	})

	t.Run("preserves non-string values", func(t *testing.T) {
		args := map[string]interface{}{"number": 42, "bool": true, "null": nil}
		result := sanitizeArguments(args)
		assert.Equal(t, args, result)
	})

	t.Run("handles nil arguments", func(t *testing.T) {
		assert.Nil(t, sanitizeArguments(nil))
	})
}
