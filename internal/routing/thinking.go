package routing

import "strings"

// AnthropicThinkingInput carries the subset of an Anthropic request body
// the thinking-detection rule needs.
type AnthropicThinkingInput struct {
	ThinkingEnabled            bool
	LatestAssistantHasToolUse  bool
	LatestAssistantHasThinking bool
}

// DetectAnthropicThinking implements §4.4's Anthropic-surface rule:
// thinking is never auto-enabled, and is auto-disabled when the latest
// assistant turn used a tool without an accompanying thinking block (to
// avoid upstream 400s).
func DetectAnthropicThinking(in AnthropicThinkingInput) bool {
	if !in.ThinkingEnabled {
		return false
	}
	if in.LatestAssistantHasToolUse && !in.LatestAssistantHasThinking {
		return false
	}
	return true
}

// OpenAIThinkingInput carries the subset of an OpenAI-compat request body
// the thinking-detection rule needs.
type OpenAIThinkingInput struct {
	ThinkingEnabled   bool
	ReasoningEffort   string
	Model             string
}

// nonThinkingClaudeFamilies are model-name substrings that explicitly pick
// a non-thinking Claude family on the OpenAI-compat surface.
var nonThinkingClaudeFamilies = []string{"claude-3", "claude-haiku"}

// DetectOpenAIThinking implements §4.4's OpenAI-compat rule chain; thinking
// is on by default unless a signal explicitly turns it off.
func DetectOpenAIThinking(in OpenAIThinkingInput) bool {
	if in.ThinkingEnabled {
		return true
	}
	if in.ReasoningEffort != "" && in.ReasoningEffort != "none" {
		return true
	}
	lower := strings.ToLower(in.Model)
	if strings.Contains(lower, "thinking") {
		return true
	}
	for _, fam := range nonThinkingClaudeFamilies {
		if strings.Contains(lower, fam) {
			return false
		}
	}
	return true
}
