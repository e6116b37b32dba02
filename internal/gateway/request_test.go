package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnthropicRequestDetectsToolUseWithoutThinking(t *testing.T) {
	body := []byte(`{
		"model": "claude-opus-4-5",
		"messages": [
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": [{"type": "tool_use", "id": "1", "name": "x"}]}
		]
	}`)
	req, err := parseAnthropicRequest(body)
	require.NoError(t, err)
	hasToolUse, hasThinking := req.latestAssistantBlocks()
	assert.True(t, hasToolUse)
	assert.False(t, hasThinking)
}

func TestParseAnthropicRequestStringContentHasNoBlocks(t *testing.T) {
	body := []byte(`{
		"model": "claude-opus-4-5",
		"messages": [{"role": "assistant", "content": "just text"}]
	}`)
	req, err := parseAnthropicRequest(body)
	require.NoError(t, err)
	hasToolUse, hasThinking := req.latestAssistantBlocks()
	assert.False(t, hasToolUse)
	assert.False(t, hasThinking)
}

func TestParseAnthropicRequestThinkingEnabled(t *testing.T) {
	body := []byte(`{"model": "claude-opus-4-5", "thinking": {"type": "enabled"}}`)
	req, err := parseAnthropicRequest(body)
	require.NoError(t, err)
	assert.True(t, req.thinkingEnabled())
}

