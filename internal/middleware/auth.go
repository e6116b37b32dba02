// Package middleware implements the auth enforcement and access-log
// wrapping that every route passes through (§4.2, §4.8).
package middleware

import (
	"net/http"
	"strings"

	"github.com/rpay/antigravity-gateway/internal/config"
)

// healthPaths are exempt from header inspection under all_except_health
// (§4.2 step 3).
var healthPaths = map[string]bool{"/healthz": true, "/health": true}

// Auth enforces the configured auth policy per request (§4.2). snapshot
// returns the configuration pinned for the current request.
type Auth struct {
	snapshot func() *config.Config
}

// NewAuth builds the auth middleware over a configuration snapshot
// provider.
func NewAuth(snapshot func() *config.Config) *Auth {
	return &Auth{snapshot: snapshot}
}

// Enforce wraps next with the auth policy.
func (a *Auth) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		cfg := a.snapshot()
		mode := cfg.Auth.EffectiveMode(cfg.Network.AllowLANAccess)

		if mode == config.AuthOff {
			next.ServeHTTP(w, r)
			return
		}

		if mode == config.AuthAllExceptHealth && r.Method == http.MethodGet && healthPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		key, present := extractAPIKey(r)
		if !present || key != cfg.Auth.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		stripGatewayAuthHeaders(r)
		next.ServeHTTP(w, r)
	})
}

// extractAPIKey reads Authorization: Bearer <key> or x-api-key: <key>. A
// malformed Authorization header is treated as absent, not rejected here —
// the healthPaths bypass above must never see this function reject.
func extractAPIKey(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(auth, prefix) {
			return strings.TrimPrefix(auth, prefix), true
		}
		return "", false
	}
	if key := r.Header.Get("x-api-key"); key != "" {
		return key, true
	}
	return "", false
}

// stripGatewayAuthHeaders removes the gateway's own credentials before the
// request reaches any handler that might forward headers upstream — the
// api_key must never appear in an outbound request (§4.2, §8 invariant).
func stripGatewayAuthHeaders(r *http.Request) {
	r.Header.Del("Authorization")
	r.Header.Del("x-api-key")
}
