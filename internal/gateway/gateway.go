package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rpay/antigravity-gateway/internal/accountpool"
	"github.com/rpay/antigravity-gateway/internal/attribution"
	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/rpay/antigravity-gateway/internal/dispatch"
	"github.com/rpay/antigravity-gateway/internal/gwerrors"
	"github.com/rpay/antigravity-gateway/internal/passthrough"
	"github.com/rpay/antigravity-gateway/internal/ratelimit"
	"github.com/rpay/antigravity-gateway/internal/routing"
	"github.com/rpay/antigravity-gateway/internal/transform"
)

// Gateway drives the control flow of §2's "typical request" past auth and
// routing: dispatcher → (pool) routing engine → transform pipeline, or
// (passthrough) sanitizer → passthrough client.
type Gateway struct {
	store      *config.Store
	pool       *accountpool.Pool
	tracker    *ratelimit.Tracker
	engine     *routing.Engine
	dispatcher *dispatch.Dispatcher
	pipeline   transform.Pipeline
}

// New builds a Gateway over its already-constructed collaborators.
func New(store *config.Store, pool *accountpool.Pool, tracker *ratelimit.Tracker, engine *routing.Engine, dispatcher *dispatch.Dispatcher, pipeline transform.Pipeline) *Gateway {
	return &Gateway{store: store, pool: pool, tracker: tracker, engine: engine, dispatcher: dispatcher, pipeline: pipeline}
}

// passthroughClient builds a fresh zai client from the current config
// snapshot; cheap enough to build per request given http.Client pools its
// own transport connections.
func (g *Gateway) passthroughClient(z config.Zai, timeout time.Duration) *passthrough.Client {
	key := z.APIKey
	if z.APIKeyOverride != "" {
		key = z.APIKeyOverride
	}
	return passthrough.NewClient(z.BaseURL, key, timeout)
}

// sessionKeyFrom extracts the sticky-binding key: an explicit session
// header first, else the Anthropic request's metadata.user_id, else "" (the
// anonymous 60s reuse window, §3 Sticky Binding).
func sessionKeyFrom(r *http.Request, body []byte) string {
	if v := r.Header.Get("X-Session-Id"); v != "" {
		return v
	}
	var withMeta struct {
		Metadata struct {
			UserID string `json:"user_id"`
		} `json:"metadata"`
	}
	if json.Unmarshal(body, &withMeta) == nil && withMeta.Metadata.UserID != "" {
		return withMeta.Metadata.UserID
	}
	return ""
}

// HandleMessages implements POST /v1/messages.
func (g *Gateway) HandleMessages(w http.ResponseWriter, r *http.Request) {
	g.serveAnthropic(w, r, "/v1/messages")
}

// HandleCountTokens implements POST /v1/messages/count_tokens — the same
// dispatch decision as HandleMessages so fallback/pooled stay consistent
// (§4.3).
func (g *Gateway) HandleCountTokens(w http.ResponseWriter, r *http.Request) {
	g.serveAnthropic(w, r, "/v1/messages/count_tokens")
}

func (g *Gateway) serveAnthropic(w http.ResponseWriter, r *http.Request, upstreamPath string) {
	cfg := g.store.Snapshot()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		gwerrors.New(gwerrors.KindConfigInvalid, "could not read request body").WriteHTTP(w, gwerrors.SurfaceAnthropic)
		return
	}

	parsed, err := parseAnthropicRequest(body)
	if err != nil {
		gwerrors.New(gwerrors.KindConfigInvalid, "malformed request body").WriteHTTP(w, gwerrors.SurfaceAnthropic)
		return
	}

	eligible := dispatch.Eligible(cfg.Zai)
	decision, err := g.dispatcher.Decide(cfg.Zai.DispatchMode, eligible, poolProbe{g.pool})
	if err != nil {
		if gerr, ok := err.(*gwerrors.Error); ok {
			gerr.WriteHTTP(w, gwerrors.SurfaceAnthropic)
			return
		}
		gwerrors.New(gwerrors.KindConfigInvalid, "dispatch configuration error").WriteHTTP(w, gwerrors.SurfaceAnthropic)
		return
	}

	if decision == dispatch.DecisionPassthrough {
		g.servePassthrough(w, r, cfg, upstreamPath, body, parsed)
		return
	}
	g.servePool(w, r, cfg, parsed)
}

func (g *Gateway) servePassthrough(w http.ResponseWriter, r *http.Request, cfg *config.Config, upstreamPath string, body []byte, parsed anthropicRequest) {
	sanitized, err := passthrough.SanitizeBody(body)
	if err != nil {
		gwerrors.New(gwerrors.KindConfigInvalid, "malformed request body").WriteHTTP(w, gwerrors.SurfaceAnthropic)
		return
	}

	timeout := cfg.Network.ParsedRequestTimeout()
	client := g.passthroughClient(cfg.Zai, timeout)

	accept := "application/json"
	if parsed.Stream {
		accept = "text/event-stream"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	resp, err := client.Forward(ctx, upstreamPath, bytes.NewReader(sanitized), accept)
	if err != nil {
		gwerrors.Wrap(gwerrors.KindUpstreamUnavailable, "passthrough upstream unavailable", err).WriteHTTP(w, gwerrors.SurfaceAnthropic)
		return
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get("mcp-session-id"); sid != "" {
		w.Header().Set("mcp-session-id", sid)
	}

	attribution.Apply(w, cfg.Observability.ResponseAttributionHeaders, attribution.Headers{
		Provider: attribution.ProviderZai,
		Model:    resolveZaiModel(parsed.Model, cfg.Zai.ModelMapping, cfg.Zai.DefaultModelMapping()),
	})
	w.WriteHeader(resp.StatusCode)

	if parsed.Stream {
		passthrough.NormalizeStream(w, resp.Body)
		return
	}
	_, _ = io.Copy(w, resp.Body)
}

func (g *Gateway) servePool(w http.ResponseWriter, r *http.Request, cfg *config.Config, parsed anthropicRequest) {
	hasToolUse, hasThinking := parsed.latestAssistantBlocks()
	thinking := routing.DetectAnthropicThinking(routing.AnthropicThinkingInput{
		ThinkingEnabled:            parsed.thinkingEnabled(),
		LatestAssistantHasToolUse:  hasToolUse,
		LatestAssistantHasThinking: hasThinking,
	})

	req := routing.Request{
		Surface:    routing.SurfaceAnthropic,
		Model:      parsed.Model,
		Thinking:   thinking,
		SessionKey: sessionKeyFrom(r, nil),
	}

	up := &pipelineUpstream{
		pool:     g.pool,
		pipeline: g.pipeline,
		thinking: thinking,
		fields: transform.AnthropicRequestFields{
			MaxTokens:     parsed.MaxTokens,
			StopSequences: parsed.StopSequences,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), cfg.Network.ParsedRequestTimeout())
	defer cancel()
	resolution, err := g.engine.Resolve(ctx, req, cfg.Mapping, up)
	if err != nil {
		writeEngineError(w, err, parsed.Stream)
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

// writeEngineError renders a routing engine failure in the Anthropic shape,
// as an SSE terminal frame when the request was streaming (§7).
func writeEngineError(w http.ResponseWriter, err error, stream bool) {
	gerr, ok := err.(*gwerrors.Error)
	if !ok {
		gerr = gwerrors.Wrap(gwerrors.KindUpstreamUnavailable, "upstream request failed", err)
	}
	if stream {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(gerr.Kind.StatusCode())
		gerr.WriteSSE(w, gwerrors.SurfaceAnthropic)
		return
	}
	gerr.WriteHTTP(w, gwerrors.SurfaceAnthropic)
}

// poolProbe adapts *accountpool.Pool to dispatch.PoolProbe, tolerating a
// nil pool (e.g. a misconfigured data directory) by reporting empty.
type poolProbe struct{ pool *accountpool.Pool }

func (p poolProbe) HasSelectableAccount() bool {
	if p.pool == nil {
		return false
	}
	return p.pool.HasSelectableAccount()
}

func (p poolProbe) EligibleCount() int {
	if p.pool == nil {
		return 0
	}
	return p.pool.EligibleCount()
}
