package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveZaiModelExactOverrideWins(t *testing.T) {
	got := resolveZaiModel("claude-opus-4-5", map[string]string{"claude-opus-4-5": "glm-custom"}, map[string]string{"opus": "glm-4.6"})
	assert.Equal(t, "glm-custom", got)
}

func TestResolveZaiModelFamilyDefault(t *testing.T) {
	got := resolveZaiModel("claude-3-5-sonnet-20241022", nil, map[string]string{"sonnet": "glm-4.6"})
	assert.Equal(t, "glm-4.6", got)
}

func TestResolveZaiModelFallsBackToRawName(t *testing.T) {
	got := resolveZaiModel("some-other-model", nil, map[string]string{"opus": "glm-4.6"})
	assert.Equal(t, "some-other-model", got)
}
