package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/quantum-vault/internal/domain/ai"
	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

func completionServer(t *testing.T, status int, content string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestClient(srv *httptest.Server, model string) *Client {
	logger, _ := test.NewNullLogger()
	return NewClient("sk-test", model, srv.URL+"/v1", 0, logrus.NewEntry(logger))
}

func TestSuggestRemediation(t *testing.T) {
	srv, reqs := completionServer(t, http.StatusOK,
		`{"plain_language_summary":"Attackers can read every user record.","developer_code_snippet":"db.Query(\"SELECT * FROM users WHERE id = ?\", id)"}`)
	c := newTestClient(srv, "")

	got, err := c.SuggestRemediation(context.Background(), domai.RemediationRequest{
		Description: "SQL injection", CVSSScore: 8.8, AssetType: vulns.AssetDatabase, PatchAvailable: true, TargetLanguage: "go",
	})
	require.NoError(t, err)
	assert.Equal(t, "Attackers can read every user record.", got.PlainLanguageSummary)
	assert.Contains(t, got.DeveloperCodeSnippet, "WHERE id = ?")

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, defaultModel, req["model"])
	assert.EqualValues(t, defaultMaxTokens, req["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, req["response_format"])
}

func TestReasoningModelUsesMaxCompletionTokens(t *testing.T) {
	srv, reqs := completionServer(t, http.StatusOK, `{"plain_language_summary":"x","developer_code_snippet":"y"}`)
	c := newTestClient(srv, "o3-mini")

	_, err := c.SuggestRemediation(context.Background(), domai.RemediationRequest{AssetType: vulns.AssetAPI})
	require.NoError(t, err)
	req := (*reqs)[0]
	assert.EqualValues(t, defaultMaxTokens, req["max_completion_tokens"])
	assert.NotContains(t, req, "max_tokens")
}

func TestSimulateScan(t *testing.T) {
	srv, _ := completionServer(t, http.StatusOK, `{
  "vulnerability_checks": [
    {"type": "SQL Injection", "checks": [
      {"name": "Tautology-based", "passed": false, "details": "id parameter", "risk_level": "Critical"},
      {"name": "Union-based", "passed": true, "details": "", "risk_level": "Informational"}
    ]},
    {"type": "XSS", "checks": [
      {"name": "Reflected XSS in URL parameters", "passed": false, "details": "q echoed", "risk_level": "High"}
    ]}
  ],
  "summary": "Search page reflects input."
}`)
	c := newTestClient(srv, "")

	h, err := c.SimulateScan(context.Background(), "https://shop.example.com/search?q=1")
	require.NoError(t, err)
	assert.Equal(t, "Search page reflects input.", h.Summary)
	require.Len(t, h.Groups, 2)
	assert.Equal(t, vulns.CheckSQLInjection, h.Groups[0].Type)
	assert.Equal(t, vulns.SeverityCritical, h.Groups[0].Checks[0].RiskLevel)
	assert.Equal(t, vulns.CheckXSS, h.Groups[1].Type)
}

func TestSimulateScanRejectsUnknownRiskLevel(t *testing.T) {
	srv, _ := completionServer(t, http.StatusOK,
		`{"vulnerability_checks":[{"type":"XSS","checks":[{"name":"DOM-based XSS","passed":false,"details":"","risk_level":"Severe"}]}],"summary":""}`)
	c := newTestClient(srv, "")

	_, err := c.SimulateScan(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, domai.ErrMalformedResponse)
	assert.ErrorIs(t, err, vulns.ErrUnknownSeverity)
}

func TestMalformedJSON(t *testing.T) {
	srv, _ := completionServer(t, http.StatusOK, `not json`)
	c := newTestClient(srv, "")

	_, err := c.SuggestRemediation(context.Background(), domai.RemediationRequest{})
	assert.ErrorIs(t, err, domai.ErrMalformedResponse)
}

func TestQuotaExceeded(t *testing.T) {
	srv, _ := completionServer(t, http.StatusTooManyRequests, "")
	c := newTestClient(srv, "")

	_, err := c.SimulateScan(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
}
