package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectAnthropicThinking(t *testing.T) {
	assert.False(t, DetectAnthropicThinking(AnthropicThinkingInput{ThinkingEnabled: false}))
	assert.True(t, DetectAnthropicThinking(AnthropicThinkingInput{ThinkingEnabled: true}))
	assert.False(t, DetectAnthropicThinking(AnthropicThinkingInput{
		ThinkingEnabled:            true,
		LatestAssistantHasToolUse:  true,
		LatestAssistantHasThinking: false,
	}))
	assert.True(t, DetectAnthropicThinking(AnthropicThinkingInput{
		ThinkingEnabled:            true,
		LatestAssistantHasToolUse:  true,
		LatestAssistantHasThinking: true,
	}))
}

func TestDetectOpenAIThinking(t *testing.T) {
	assert.True(t, DetectOpenAIThinking(OpenAIThinkingInput{ThinkingEnabled: true}))
	assert.True(t, DetectOpenAIThinking(OpenAIThinkingInput{ReasoningEffort: "high"}))
	// effort "none" only skips the effort rule; with no other signal the
	// default (on) applies.
	assert.True(t, DetectOpenAIThinking(OpenAIThinkingInput{ReasoningEffort: "none"}))
	assert.True(t, DetectOpenAIThinking(OpenAIThinkingInput{Model: "claude-sonnet-4-5-thinking"}))
	assert.False(t, DetectOpenAIThinking(OpenAIThinkingInput{Model: "claude-3-haiku"}))
	assert.True(t, DetectOpenAIThinking(OpenAIThinkingInput{Model: "gpt-4o"}))
}
