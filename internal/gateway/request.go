// Package gateway wires the Router, Dispatcher, Routing Engine,
// Passthrough Sanitizer, and Transform Pipeline into the end-to-end
// request flow of §2's "Control flow of a typical request".
package gateway

import (
	"encoding/json"
)

// anthropicContentBlock is the subset of a content block's shape the
// thinking-detection rule needs to see.
type anthropicContentBlock struct {
	Type string `json:"type"`
}

// anthropicMessage is one entry of an incoming /v1/messages body's
// messages array; Content may be a string or an array of blocks.
type anthropicMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// anthropicThinking mirrors the incoming thinking config; only its type is
// read, the budget is left to the raw body.
type anthropicThinking struct {
	Type string `json:"type"`
}

// anthropicRequest is the subset of an incoming Anthropic-surface body the
// gateway needs to make routing and dispatch decisions. Unknown fields are
// preserved separately via the raw body bytes forwarded to the passthrough
// sanitizer or transform pipeline — this struct never round-trips the full
// request.
type anthropicRequest struct {
	Model         string             `json:"model"`
	Stream        bool               `json:"stream"`
	MaxTokens     int                `json:"max_tokens"`
	StopSequences []string           `json:"stop_sequences"`
	Thinking      *anthropicThinking `json:"thinking"`
	Messages      []anthropicMessage `json:"messages"`
}

func parseAnthropicRequest(body []byte) (anthropicRequest, error) {
	var req anthropicRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return anthropicRequest{}, err
	}
	return req, nil
}

// thinkingEnabled reports whether the request asked for thinking at all
// (§4.4: "thinking.type == \"enabled\"").
func (r anthropicRequest) thinkingEnabled() bool {
	return r.Thinking != nil && r.Thinking.Type == "enabled"
}

// latestAssistantBlocks inspects the last assistant-role message's content
// blocks for tool_use / thinking presence, feeding the auto-disable rule.
func (r anthropicRequest) latestAssistantBlocks() (hasToolUse, hasThinking bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role != "assistant" {
			continue
		}
		var blocks []anthropicContentBlock
		if err := json.Unmarshal(r.Messages[i].Content, &blocks); err != nil {
			return false, false // string-form content carries no blocks
		}
		for _, b := range blocks {
			switch b.Type {
			case "tool_use":
				hasToolUse = true
			case "thinking":
				hasThinking = true
			}
		}
		return hasToolUse, hasThinking
	}
	return false, false
}

// openaiRequest is the subset of an incoming OpenAI-compat body the gateway
// needs for routing/thinking decisions.
type openaiRequest struct {
	Model           string             `json:"model"`
	Stream          bool               `json:"stream"`
	MaxTokens       int                `json:"max_tokens"`
	MaxOutputTokens int                `json:"max_completion_tokens"`
	Stop            []string           `json:"stop"`
	Thinking        *anthropicThinking `json:"thinking"`
	Reasoning       struct {
		Effort string `json:"effort"`
	} `json:"reasoning"`
}

// maxTokens resolves the OpenAI-compat surface's two spellings of the
// output token cap, preferring max_completion_tokens when both are set
// (the newer field OpenAI's own API now prefers).
func (r openaiRequest) maxTokens() int {
	if r.MaxOutputTokens > 0 {
		return r.MaxOutputTokens
	}
	return r.MaxTokens
}

func parseOpenAIRequest(body []byte) (openaiRequest, error) {
	var req openaiRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return openaiRequest{}, err
	}
	return req, nil
}

func (r openaiRequest) thinkingEnabled() bool {
	return r.Thinking != nil && r.Thinking.Type == "enabled"
}
