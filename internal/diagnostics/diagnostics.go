// Package diagnostics implements the side-effect-free health and pool
// probe endpoints (§4.9).
package diagnostics

import (
	"encoding/json"
	"net/http"
)

// AccountSummary is one account's probe row.
type AccountSummary struct {
	ID          string   `json:"id"`
	MaskedEmail string   `json:"masked_email"`
	Disabled    bool     `json:"disabled"`
	KnownQuota  bool     `json:"known_quota"`
	Models      []string `json:"models"`
}

// Health writes the unconditional {"status":"ok"} body for /healthz and
// /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// TestConnection probes the account pool's in-memory state for
// /test-connection. probe is supplied by the caller so this package never
// imports accountpool directly; no upstream call is made.
func TestConnection(probe func() []AccountSummary) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts": probe(),
		})
	}
}
