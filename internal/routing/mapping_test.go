package routing

import (
	"testing"

	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestResolveTargetCustomMappingWins(t *testing.T) {
	mapping := config.Mapping{
		Custom: map[string]string{"gpt-4o": "claude-opus-4-5-thinking"},
	}
	got := ResolveTarget(SurfaceOpenAI, "gpt-4o", mapping)
	assert.Equal(t, "claude-opus-4-5-thinking", got)
}

func TestResolveTargetAnthropicFamilyBeforeSeries(t *testing.T) {
	mapping := config.Mapping{
		Anthropic: map[string]string{
			"claude-opus-family": "custom-opus-target",
			"claude-4.5-series":  "custom-series-target",
		},
	}
	got := ResolveTarget(SurfaceAnthropic, "claude-opus-4-5-20251001", mapping)
	assert.Equal(t, "custom-opus-target", got)
}

func TestResolveTargetFallsBackToBuiltinDefaults(t *testing.T) {
	got := ResolveTarget(SurfaceAnthropic, "claude-haiku-4-5", config.Mapping{})
	assert.Equal(t, "gemini-3-pro-high", got)
}

func TestResolveTargetSeriesMatch(t *testing.T) {
	got := ResolveTarget(SurfaceAnthropic, "claude-3-5-turbo-whatever", config.Mapping{})
	assert.Equal(t, "gemini-3-pro-high", got)
}
