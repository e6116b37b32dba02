package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGenerationConfigMapsFields(t *testing.T) {
	cfg := BuildGenerationConfig(AnthropicRequestFields{
		MaxTokens:     2048,
		StopSequences: []string{"STOP"},
	})
	assert.Equal(t, int32(2048), cfg.MaxOutputTokens)
	assert.Equal(t, []string{"STOP"}, cfg.StopSequences)
}

func TestBuildGenerationConfigDefaultsStopSequences(t *testing.T) {
	cfg := BuildGenerationConfig(AnthropicRequestFields{MaxTokens: 1024})
	assert.Equal(t, []string{}, cfg.StopSequences)
}

func TestUnconfiguredGenerateReportsRequestedFields(t *testing.T) {
	body, err := Unconfigured{}.Generate(context.Background(), "tok", "gemini-3-pro-high",
		AnthropicRequestFields{MaxTokens: 512, StopSequences: []string{"STOP"}}, true)
	assert.Nil(t, body)
	assert.True(t, errors.Is(err, unconfiguredError))
	assert.ErrorContains(t, err, "gemini-3-pro-high")
	assert.ErrorContains(t, err, "512")
}
