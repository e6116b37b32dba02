package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpay/antigravity-gateway/internal/config"
)

func TestAccessLogEmitsMethodPathStatusLatency(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	cfg := &config.Config{Observability: config.Observability{AccessLogEnabled: true}}

	handler := AccessLog(log, func() *config.Config { return cfg })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/messages?secret=shouldnotappear", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/v1/messages", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Contains(t, entry, "latency")
	assert.NotContains(t, strings.ToLower(buf.String()), "secret")
}

func TestAccessLogDisabledEmitsNothing(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	cfg := &config.Config{Observability: config.Observability{AccessLogEnabled: false}}

	handler := AccessLog(log, func() *config.Config { return cfg })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, buf.String())
}

func TestResponseWriterDefaultsToOKWhenUnwritten(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, status: http.StatusOK}
	_, err := rw.Write([]byte("body"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rw.status)
}
