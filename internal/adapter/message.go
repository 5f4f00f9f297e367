// Package adapter provides implementations for external AI provider integrations.
package adapter

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged turn in a conversation.
// It is immutable once constructed.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered sequence of messages submitted as one unit.
// Order is semantically significant and is preserved end-to-end. At most one
// leading system message is meaningful; system messages elsewhere in the
// sequence receive no special handling.
type Conversation []Message

// Clone returns a copy of the conversation. Adapters restructure copies so the
// caller's slice is never mutated.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// SplitSystem returns the content of a leading system message and the
// remaining messages. When the conversation does not start with a system
// message it returns "" and the conversation unchanged.
func (c Conversation) SplitSystem() (string, Conversation) {
	if len(c) > 0 && c[0].Role == RoleSystem {
		return c[0].Content, c[1:]
	}
	return "", c
}

// ResponseFormat selects the output shaping requested from the provider.
type ResponseFormat string

const (
	// FormatNone requests plain text with no output shaping.
	FormatNone ResponseFormat = ""

	// FormatJSONObject asks the provider to produce a JSON object. Whether
	// and how this is enforced is provider-specific; see the individual
	// adapters.
	FormatJSONObject ResponseFormat = "json_object"
)

// MaxOutputTokenCeiling is the fixed upper bound on generated tokens per
// deployment. Requests above it are clamped.
const MaxOutputTokenCeiling = 16384

// GenerationConfig carries the generation parameters for one invocation.
type GenerationConfig struct {
	Temperature     float64
	MaxOutputTokens int
	ResponseFormat  ResponseFormat
}

// effectiveMaxTokens applies the deployment ceiling to the requested bound.
// A zero or negative request means "as much as allowed".
func effectiveMaxTokens(cfg GenerationConfig) int {
	if cfg.MaxOutputTokens <= 0 || cfg.MaxOutputTokens > MaxOutputTokenCeiling {
		return MaxOutputTokenCeiling
	}
	return cfg.MaxOutputTokens
}
