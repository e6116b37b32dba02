package gateway

import (
	"context"
	"io"
	"net/http"

	"github.com/rpay/antigravity-gateway/internal/attribution"
	"github.com/rpay/antigravity-gateway/internal/gwerrors"
	"github.com/rpay/antigravity-gateway/internal/routing"
	"github.com/rpay/antigravity-gateway/internal/transform"
)

// HandleChatCompletions implements POST /v1/chat/completions,
// /v1/completions, and /v1/responses — all three share the same
// OpenAI-compat routing and thinking rules (§4.4).
func (g *Gateway) HandleChatCompletions(w http.ResponseWriter, r *http.Request) {
	cfg := g.store.Snapshot()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		gwerrors.New(gwerrors.KindConfigInvalid, "could not read request body").WriteHTTP(w, gwerrors.SurfaceOpenAI)
		return
	}
	parsed, err := parseOpenAIRequest(body)
	if err != nil {
		gwerrors.New(gwerrors.KindConfigInvalid, "malformed request body").WriteHTTP(w, gwerrors.SurfaceOpenAI)
		return
	}

	thinking := routing.DetectOpenAIThinking(routing.OpenAIThinkingInput{
		ThinkingEnabled: parsed.thinkingEnabled(),
		ReasoningEffort: parsed.Reasoning.Effort,
		Model:           parsed.Model,
	})

	req := routing.Request{
		Surface:    routing.SurfaceOpenAI,
		Model:      parsed.Model,
		Thinking:   thinking,
		SessionKey: sessionKeyFrom(r, nil),
	}

	up := &pipelineUpstream{
		pool:     g.pool,
		pipeline: g.pipeline,
		thinking: thinking,
		fields: transform.AnthropicRequestFields{
			MaxTokens:     parsed.maxTokens(),
			StopSequences: parsed.Stop,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), cfg.Network.ParsedRequestTimeout())
	defer cancel()
	resolution, err := g.engine.Resolve(ctx, req, cfg.Mapping, up)
	if err != nil {
		writeEngineErrorOpenAI(w, err, parsed.Stream)
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

func writeEngineErrorOpenAI(w http.ResponseWriter, err error, stream bool) {
	gerr, ok := err.(*gwerrors.Error)
	if !ok {
		gerr = gwerrors.Wrap(gwerrors.KindUpstreamUnavailable, "upstream request failed", err)
	}
	if stream {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(gerr.Kind.StatusCode())
		gerr.WriteSSE(w, gwerrors.SurfaceOpenAI)
		return
	}
	gerr.WriteHTTP(w, gwerrors.SurfaceOpenAI)
}
