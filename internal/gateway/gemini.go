package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rpay/antigravity-gateway/internal/attribution"
	"github.com/rpay/antigravity-gateway/internal/gwerrors"
	"github.com/rpay/antigravity-gateway/internal/routing"
	"github.com/rpay/antigravity-gateway/internal/transform"
)

// knownModels is the static catalog returned by GET /v1/models/claude and
// GET /v1beta/models.
var knownModels = []string{
	"claude-opus-4-5-thinking",
	"claude-sonnet-4-5-thinking",
	"claude-sonnet-4-5",
	"gemini-3-pro-high",
	"gemini-3-flash",
}

// HandleModelsClaude implements GET /v1/models/claude: a static list, no
// account pool or upstream call involved.
func (g *Gateway) HandleModelsClaude(w http.ResponseWriter, r *http.Request) {
	writeModelList(w, "claude-3", func(id string) bool { return strings.HasPrefix(id, "claude") })
}

// HandleModelsGemini implements GET /v1beta/models.
func (g *Gateway) HandleModelsGemini(w http.ResponseWriter, r *http.Request) {
	writeModelList(w, "gemini-3", func(id string) bool { return strings.HasPrefix(id, "gemini") })
}

func writeModelList(w http.ResponseWriter, apiVersion string, include func(string) bool) {
	var out []map[string]string
	for _, id := range knownModels {
		if include(id) {
			out = append(out, map[string]string{"name": "models/" + id, "version": apiVersion})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"models": out})
}

// HandleModelGet implements GET /v1beta/models/:m.
func (g *Gateway) HandleModelGet(w http.ResponseWriter, r *http.Request) {
	m := chi.URLParam(r, "m")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"name": "models/" + m})
}

// geminiRequest is the subset of a Gemini-native generateContent body the
// gateway needs.
type geminiRequest struct {
	GenerationConfig struct {
		MaxOutputTokens int      `json:"maxOutputTokens"`
		StopSequences   []string `json:"stopSequences"`
	} `json:"generationConfig"`
}

// HandleGenerateContent implements POST /v1beta/models/:m:generate and
// :countTokens — the Gemini-native surface never resolves candidate
// mapping (the model id is already the upstream id); it goes straight to
// account selection for the named model. The model id and action are a
// single colon-joined path segment (e.g. "gemini-3-pro-high:generateContent")
// per the Gemini wire format, so chi's {m} wildcard captures both and this
// handler splits them back apart.
func (g *Gateway) HandleGenerateContent(w http.ResponseWriter, r *http.Request) {
	cfg := g.store.Snapshot()
	model, action := splitModelAction(chi.URLParam(r, "m"))
	if strings.Contains(action, "countTokens") {
		g.handleCountTokensGemini(w, r, model)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		gwerrors.New(gwerrors.KindConfigInvalid, "could not read request body").WriteHTTP(w, gwerrors.SurfaceGemini)
		return
	}
	var parsed geminiRequest
	_ = json.Unmarshal(body, &parsed)

	req := routing.Request{
		Surface:    routing.SurfaceGemini,
		Model:      model,
		Thinking:   false,
		SessionKey: sessionKeyFrom(r, nil),
	}

	up := &pipelineUpstream{
		pool:     g.pool,
		pipeline: g.pipeline,
		fields: transform.AnthropicRequestFields{
			MaxTokens:     parsed.GenerationConfig.MaxOutputTokens,
			StopSequences: parsed.GenerationConfig.StopSequences,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), cfg.Network.ParsedRequestTimeout())
	defer cancel()
	resolution, err := g.engine.Resolve(ctx, req, cfg.Mapping, up)
	if err != nil {
		gerr, ok := err.(*gwerrors.Error)
		if !ok {
			gerr = gwerrors.Wrap(gwerrors.KindUpstreamUnavailable, "upstream request failed", err)
		}
		gerr.WriteHTTP(w, gwerrors.SurfaceGemini)
		return
	}

	attribution.Apply(w, cfg.Observability.ResponseAttributionHeaders, attribution.Headers{
		Provider: attribution.ProviderGoogle,
		Model:    resolution.Model,
		Account:  resolution.Account.MaskedEmail(),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(up.lastBody)
}

// splitModelAction separates a Gemini wire-format "{model}:{action}"
// segment; an id with no colon is returned with an empty action.
func splitModelAction(m string) (model, action string) {
	i := strings.LastIndex(m, ":")
	if i < 0 {
		return m, ""
	}
	return m[:i], m[i+1:]
}

// handleCountTokensGemini reports a side-effect-free token estimate; no
// account or upstream call is involved, matching a count-only request's
// light weight relative to generateContent.
func (g *Gateway) handleCountTokensGemini(w http.ResponseWriter, r *http.Request, model string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		gwerrors.New(gwerrors.KindConfigInvalid, "could not read request body").WriteHTTP(w, gwerrors.SurfaceGemini)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]int{"totalTokens": len(body) / 4})
}
