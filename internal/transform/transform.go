// Package transform implements the external collaborator interface
// between the routing engine and the Google-backed Anthropic path: the
// request/response mapping itself is out of scope (§1), but the two
// contracts the core relies on are implemented here (§4.6).
package transform

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// AnthropicRequestFields is the subset of an Anthropic request the
// pipeline needs to shape generationConfig.
type AnthropicRequestFields struct {
	MaxTokens     int
	StopSequences []string
}

// defaultStopSequences is used when the incoming request carries none.
var defaultStopSequences = []string{}

// BuildGenerationConfig implements the only contract the core relies on:
// max_tokens → generationConfig.maxOutputTokens, stop_sequences →
// generationConfig.stopSequences (with defaults when omitted). Thinking is
// never auto-enabled here: ThinkingConfig is left unset.
func BuildGenerationConfig(req AnthropicRequestFields) *genai.GenerateContentConfig {
	stop := req.StopSequences
	if stop == nil {
		stop = defaultStopSequences
	}
	cfg := &genai.GenerateContentConfig{
		StopSequences: stop,
	}
	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		cfg.MaxOutputTokens = maxTokens
	}
	return cfg
}

// Pipeline is the narrow interface the routing engine presents a request
// to and receives an upstream response from. The production
// implementation lives outside this module's scope (the request-body
// transformation from Anthropic schema to Gemini schema is an external
// collaborator, §1); this interface is what the core depends on.
// accessToken is the resolved account's current access token — the core
// never speaks the upstream wire protocol, only hands the pipeline a
// token and the fields it is contractually allowed to shape.
type Pipeline interface {
	Generate(ctx context.Context, accessToken, model string, req AnthropicRequestFields, thinkingEnabled bool) ([]byte, error)
}

// unconfiguredError is returned by Unconfigured for every call.
var unconfiguredError = errors.New("transform pipeline not configured: no Anthropic-to-Gemini request transformer wired")

// Unconfigured is a Pipeline that always fails, for deployments that have
// not wired a production transformer. It lets the Google-backed pool path
// exist in the route table and fail cleanly (upstream_unavailable) rather
// than the caller needing to special-case "no pipeline" throughout the
// gateway. It still runs the request through BuildGenerationConfig so the
// rejection carries the generationConfig the caller would have sent,
// useful for diagnosing a dropped request without a live upstream call.
type Unconfigured struct{}

func (Unconfigured) Generate(ctx context.Context, accessToken, model string, req AnthropicRequestFields, thinkingEnabled bool) ([]byte, error) {
	cfg := BuildGenerationConfig(req)
	return nil, fmt.Errorf("%w (model=%s maxOutputTokens=%d stopSequences=%v thinking=%t)",
		unconfiguredError, model, cfg.MaxOutputTokens, cfg.StopSequences, thinkingEnabled)
}
