package gateway

import "strings"

// resolveZaiModel maps an incoming Anthropic model name to the zai
// passthrough's model id: an exact model_mapping override wins, else the
// opus/sonnet/haiku family default, else the raw name is forwarded
// unchanged (§3 passthrough).
func resolveZaiModel(modelName string, override map[string]string, familyDefaults map[string]string) string {
	if v, ok := override[modelName]; ok {
		return v
	}
	lower := strings.ToLower(modelName)
	switch {
	case strings.Contains(lower, "opus"):
		return familyDefaults["opus"]
	case strings.Contains(lower, "sonnet"):
		return familyDefaults["sonnet"]
	case strings.Contains(lower, "haiku"):
		return familyDefaults["haiku"]
	default:
		return modelName
	}
}
