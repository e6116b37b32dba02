package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCandidateChainCanonicalExamples(t *testing.T) {
	assert.Equal(t, []string{
		"claude-opus-4-5-thinking", "claude-sonnet-4-5-thinking",
		"gemini-3-pro-high", "claude-sonnet-4-5", "gemini-3-flash",
	}, BuildCandidateChain("claude-opus-4-5-thinking", true))

	assert.Equal(t, []string{"gemini-3-pro-high", "gemini-3-flash"},
		BuildCandidateChain("claude-opus-4-5-thinking", false))

	assert.Equal(t, []string{
		"claude-sonnet-4-5-thinking", "gemini-3-pro-high",
		"claude-sonnet-4-5", "gemini-3-flash",
	}, BuildCandidateChain("claude-sonnet-4-5", true))

	assert.Equal(t, []string{"gemini-3-pro-high", "gemini-3-flash"},
		BuildCandidateChain("claude-haiku-4-5", true))
	assert.Equal(t, []string{"gemini-3-pro-high", "gemini-3-flash"},
		BuildCandidateChain("claude-haiku-4-5", false))
}

func TestBuildCandidateChainOpenAIDefaults(t *testing.T) {
	assert.Equal(t, BuildCandidateChain("claude-opus-4-5-thinking", true),
		BuildCandidateChain("gpt-4o", true))
	assert.Equal(t, []string{"gemini-3-pro-high", "gemini-3-flash"},
		BuildCandidateChain("gpt-4o", false))
}

func TestMutatingReturnedChainDoesNotLeak(t *testing.T) {
	chain := BuildCandidateChain("claude-haiku-4-5", true)
	chain[0] = "mutated"
	again := BuildCandidateChain("claude-haiku-4-5", true)
	assert.Equal(t, "gemini-3-pro-high", again[0])
}
