// Package adapter provides implementations for external AI provider integrations.
package adapter

import "strings"

// Credential slot names. Each provider family reads exactly one named
// configuration value; the name is surfaced verbatim in ConfigurationError so
// operators know which value to set.
const (
	CredentialAnthropic = "ANTHROPIC_API_KEY"
	CredentialGoogle    = "GOOGLE_API_KEY"
	CredentialDeepSeek  = "DEEPSEEK_API_KEY"
	CredentialOpenAI    = "OPENAI_API_KEY"
)

// Credentials holds the opaque bearer credential for each provider family.
// They are resolved once, injected at adapter construction, and never
// refreshed mid-lifetime.
type Credentials struct {
	Anthropic string
	Google    string
	DeepSeek  string
	OpenAI    string
}

// Resolve pattern-matches the model identifier and constructs the matching
// adapter with its resolved credential. Matching is substring-based on the
// lower-cased identifier against a fixed, ordered rule list; the first match
// wins, so an ambiguous name is resolved by priority, not specificity:
//
//  1. "claude"   -> Claude adapter, Anthropic credential
//  2. "gemini"   -> Gemini adapter, Google credential
//  3. "deepseek" -> OpenAI-protocol adapter, DeepSeek credential and endpoint
//  4. default    -> OpenAI-protocol adapter, OpenAI credential
//
// A missing credential fails immediately with a *ConfigurationError naming
// the absent key. This is a startup-time fatal condition, never retried.
func Resolve(model string, creds Credentials, opts ...Option) (Provider, error) {
	name := strings.ToLower(model)

	switch {
	case strings.Contains(name, "claude"):
		if creds.Anthropic == "" {
			return nil, &ConfigurationError{Key: CredentialAnthropic}
		}
		return NewClaudeAdapter(model, creds.Anthropic, opts...), nil

	case strings.Contains(name, "gemini"):
		if creds.Google == "" {
			return nil, &ConfigurationError{Key: CredentialGoogle}
		}
		return NewGeminiAdapter(model, creds.Google, opts...), nil

	case strings.Contains(name, "deepseek"):
		if creds.DeepSeek == "" {
			return nil, &ConfigurationError{Key: CredentialDeepSeek}
		}
		// Caller options follow the endpoint override so tests can still
		// redirect the adapter at a fake upstream.
		deepseekOpts := append([]Option{WithBaseURL(DeepSeekBaseURL)}, opts...)
		return NewOpenAIAdapter(model, creds.DeepSeek, deepseekOpts...), nil

	default:
		if creds.OpenAI == "" {
			return nil, &ConfigurationError{Key: CredentialOpenAI}
		}
		return NewOpenAIAdapter(model, creds.OpenAI, opts...), nil
	}
}
