// Package attribution emits the redacted response headers and one-line
// access log entries of §4.8.
package attribution

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Provider identifies which upstream served a request, for the
// x-antigravity-provider header.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderZai    Provider = "zai"
)

// Headers is what attribution has learned about how a request was served.
// Model and Account are best-effort and may be empty.
type Headers struct {
	Provider Provider
	Model    string
	Account  string // already masked (first-4, ellipsis, last-4)
}

// Apply writes the attribution headers to w when enabled. Model is omitted
// if unknown; Account is omitted for passthrough (§4.8).
func Apply(w http.ResponseWriter, enabled bool, h Headers) {
	if !enabled {
		return
	}
	w.Header().Set("x-antigravity-provider", string(h.Provider))
	if h.Model != "" {
		w.Header().Set("x-antigravity-model", h.Model)
	}
	if h.Provider != ProviderZai && h.Account != "" {
		w.Header().Set("x-antigravity-account", h.Account)
	}
}

// LogAccess emits one access log line: method, path (no query), status,
// latency — nothing else (§4.8 Non-goals: no body logging).
func LogAccess(log zerolog.Logger, enabled bool, method, path string, status int, latency time.Duration) {
	if !enabled {
		return
	}
	log.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("latency", latency).
		Send()
}
