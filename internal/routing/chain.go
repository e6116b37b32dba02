package routing

import "strings"

var opusThinkingChain = []string{
	"claude-opus-4-5-thinking",
	"claude-sonnet-4-5-thinking",
	"gemini-3-pro-high",
	"claude-sonnet-4-5",
	"gemini-3-flash",
}

var sonnetThinkingChain = []string{
	"claude-sonnet-4-5-thinking",
	"gemini-3-pro-high",
	"claude-sonnet-4-5",
	"gemini-3-flash",
}

var geminiOnlyChain = []string{"gemini-3-pro-high", "gemini-3-flash"}

type family int

const (
	familyOther family = iota
	familyOpus
	familySonnet
	familyHaiku
)

func classifyFamily(target string) family {
	lower := strings.ToLower(target)
	switch {
	case strings.Contains(lower, "opus"):
		return familyOpus
	case strings.Contains(lower, "sonnet"):
		return familySonnet
	case strings.Contains(lower, "haiku"):
		return familyHaiku
	default:
		return familyOther
	}
}

// BuildCandidateChain expands a resolved target model into the ordered
// candidate chain of §4.4, combining family identity and thinking
// preference. Haiku chains are fixed regardless of thinking (per the
// canonical example); a target of no recognized Claude family falls back
// to the OpenAI-compat "Opus + thinking" / gemini-only chains, matching the
// spec's stated OpenAI behavior.
func BuildCandidateChain(target string, thinking bool) []string {
	switch classifyFamily(target) {
	case familyHaiku:
		return cloneChain(geminiOnlyChain)
	case familyOpus:
		if thinking {
			return cloneChain(opusThinkingChain)
		}
		return cloneChain(geminiOnlyChain)
	case familySonnet:
		if thinking {
			return cloneChain(sonnetThinkingChain)
		}
		return cloneChain(geminiOnlyChain)
	default:
		if thinking {
			return cloneChain(opusThinkingChain)
		}
		return cloneChain(geminiOnlyChain)
	}
}

func cloneChain(c []string) []string {
	out := make([]string, len(c))
	copy(out, c)
	return out
}

// SupportsThinking reports whether a candidate model's family has a
// thinking variant. Engine.Resolve consults it while walking the chain,
// but Upstream.Attempt takes no thinking flag, so the result does not
// change the thinking preference sent upstream.
func SupportsThinking(candidate string) bool {
	switch classifyFamily(candidate) {
	case familyOpus, familySonnet:
		return true
	default:
		return strings.Contains(strings.ToLower(candidate), "gemini-3-pro")
	}
}
