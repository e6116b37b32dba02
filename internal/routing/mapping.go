// Package routing resolves the effective upstream model (mapping layers,
// thinking preference, candidate expansion) and selects a serving account —
// the Routing Engine component (§4.4).
package routing

import (
	"regexp"
	"strings"

	"github.com/rpay/antigravity-gateway/internal/config"
)

// Surface identifies which protocol family's mapping rules apply.
type Surface string

const (
	SurfaceAnthropic Surface = "anthropic"
	SurfaceOpenAI    Surface = "openai"
	SurfaceGemini    Surface = "gemini"
)

// builtinAnthropicFamilyDefaults mirrors config.Defaults().Mapping.Anthropic;
// used as the last-resort step of the model resolution order when the live
// document carries no override for a family or series key (§6 "Recommended
// defaults").
var builtinAnthropicFamilyDefaults = map[string]string{
	"claude-opus-family":   "claude-opus-4-5-thinking",
	"claude-sonnet-family": "claude-sonnet-4-5-thinking",
	"claude-haiku-family":  "gemini-3-pro-high",
	"claude-4.5-series":    "claude-opus-4-5-thinking",
	"claude-3.5-series":    "gemini-3-pro-high",
}

var seriesPattern = regexp.MustCompile(`(\d+\.\d+)`)

// ResolveTarget implements the model resolution order of §4.4: first hit
// wins across custom_mapping, the surface-specific mapping table, the
// Anthropic family/series keys, then the built-in defaults.
func ResolveTarget(surface Surface, modelName string, mapping config.Mapping) string {
	lower := strings.ToLower(modelName)

	if v, ok := mapping.Custom[modelName]; ok {
		return v
	}

	if surface == SurfaceOpenAI {
		if v, ok := mapping.OpenAI[modelName]; ok {
			return v
		}
	}

	if surface == SurfaceAnthropic {
		familyKey := anthropicFamilyKey(lower)
		if familyKey != "" {
			if v, ok := mapping.Anthropic[familyKey]; ok {
				return v
			}
		}

		seriesKey := anthropicSeriesKey(lower)
		if seriesKey != "" {
			if v, ok := mapping.Anthropic[seriesKey]; ok {
				return v
			}
		}

		if familyKey != "" {
			if v, ok := builtinAnthropicFamilyDefaults[familyKey]; ok {
				return v
			}
		}
		if seriesKey != "" {
			if v, ok := builtinAnthropicFamilyDefaults[seriesKey]; ok {
				return v
			}
		}
	}

	// OpenAI-compat with no mapping hit falls through to the same built-in
	// defaults keyed by family, matching the canonical OpenAI candidate
	// chains (§4.4 examples).
	if familyKey := anthropicFamilyKey(lower); familyKey != "" {
		if v, ok := builtinAnthropicFamilyDefaults[familyKey]; ok {
			return v
		}
	}

	return modelName
}

// anthropicFamilyKey returns the family mapping key for a model name,
// family keys preceding series keys per §4.4 step 3.
func anthropicFamilyKey(lowerName string) string {
	switch {
	case strings.Contains(lowerName, "opus"):
		return "claude-opus-family"
	case strings.Contains(lowerName, "sonnet"):
		return "claude-sonnet-family"
	case strings.Contains(lowerName, "haiku"):
		return "claude-haiku-family"
	default:
		return ""
	}
}

// anthropicSeriesKey extracts claude-X.Y-series from a model name's version
// prefix, e.g. "claude-3-5-sonnet-20241022" → "claude-3.5-series".
func anthropicSeriesKey(lowerName string) string {
	normalized := strings.ReplaceAll(lowerName, "-", ".")
	m := seriesPattern.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	return "claude-" + m[1] + "-series"
}
