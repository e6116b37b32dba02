package diagnostics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestTestConnectionReportsProbe(t *testing.T) {
	probe := func() []AccountSummary {
		return []AccountSummary{{ID: "acc-1", MaskedEmail: "foo@...@bar", KnownQuota: true, Models: []string{"gemini-3-pro-high"}}}
	}
	req := httptest.NewRequest(http.MethodGet, "/test-connection", nil)
	rec := httptest.NewRecorder()
	TestConnection(probe)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]AccountSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["accounts"], 1)
	assert.Equal(t, "acc-1", body["accounts"][0].ID)
}
