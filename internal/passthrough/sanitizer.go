// Package passthrough cleans Anthropic bodies routed to the zai provider
// and normalizes its streaming responses (§4.5).
package passthrough

import (
	"encoding/json"
	"strings"
)

// ContentBlock is one element of an Anthropic content-block array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// rejectedTopLevelFields are removed because the upstream rejects them with
// code 1210.
var rejectedTopLevelFields = []string{"temperature", "top_p", "effort"}

// SanitizeBody implements the Anthropic body sanitizer: accepts both string
// and array forms of messages[].content, renames
// thinking.budgetTokens→thinking.budget_tokens, strips temperature/top_p/
// effort, and preserves every other top-level field untouched. Sanitizing
// an already-sanitized body is a no-op (idempotent, §8).
func SanitizeBody(body []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	for _, field := range rejectedTopLevelFields {
		delete(doc, field)
	}

	if raw, ok := doc["messages"]; ok {
		sanitized, err := sanitizeMessages(raw)
		if err != nil {
			return nil, err
		}
		doc["messages"] = sanitized
	}

	if raw, ok := doc["thinking"]; ok {
		sanitized, err := sanitizeThinking(raw)
		if err != nil {
			return nil, err
		}
		doc["thinking"] = sanitized
	}

	return json.Marshal(doc)
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// sanitizeMessages normalizes every message's content to the array form
// while leaving an already-array form untouched field-for-field.
func sanitizeMessages(raw json.RawMessage) (json.RawMessage, error) {
	var msgs []rawMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"role":    m.Role,
			"content": normalizeContent(m.Content),
		})
	}
	return json.Marshal(out)
}

// normalizeContent accepts both the plain-string and content-block-array
// forms and always returns the array form, the shape every downstream
// consumer of a sanitized body expects.
func normalizeContent(raw json.RawMessage) []map[string]any {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return []map[string]any{{"type": "text", "text": s}}
	}

	var blocks []map[string]any
	if json.Unmarshal(raw, &blocks) == nil {
		return blocks
	}
	return nil
}

func sanitizeThinking(raw json.RawMessage) (json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw, nil
	}
	if budget, ok := doc["budgetTokens"]; ok {
		doc["budget_tokens"] = budget
		delete(doc, "budgetTokens")
	}
	return json.Marshal(doc)
}

// NormalizeAuthHeader strips a redundant "Bearer " prefix a user may have
// pasted into the zai api_key configuration field.
func NormalizeAuthHeader(token string) string {
	return strings.TrimPrefix(token, "Bearer ")
}
