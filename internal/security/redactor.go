// Package security prevents provider credentials from leaking into log output.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces any detected credential.
const RedactedPlaceholder = "[REDACTED_CREDENTIAL]"

// credentialPatterns matches the credential shapes of the provider families
// the factory routes to, plus the generic carriers they travel in.
var credentialPatterns = []*regexp.Regexp{
	// Anthropic keys: sk-ant-... (checked before the generic sk- form)
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`),
	// OpenAI / DeepSeek keys: sk-...
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	// Google AI keys: AIza...
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),
	// Bearer tokens in headers echoed into messages
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]{20,}`),
	// Keys in query parameters (the Gemini endpoint carries its key there)
	regexp.MustCompile(`key=[a-zA-Z0-9_-]{20,}`),
}

// Redact scans a string for credential patterns and replaces them.
func Redact(s string) string {
	result := s
	for _, pattern := range credentialPatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// MaskCredential returns a loggable form of a credential: first four and last
// four characters with the middle elided. Short values are fully masked.
func MaskCredential(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 12 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// RedactedHandler wraps an slog.Handler and redacts credentials from records.
type RedactedHandler struct {
	inner slog.Handler
}

// NewRedactedHandler wraps an existing handler so every record passes through
// Redact before emission.
func NewRedactedHandler(inner slog.Handler) *RedactedHandler {
	return &RedactedHandler{inner: inner}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle processes a log record, redacting credentials from the message and
// all string attributes.
func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.Record{
		Time:    r.Time,
		Message: Redact(r.Message),
		Level:   r.Level,
		PC:      r.PC,
	}
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name)}
}

// redactAttr redacts credentials from a single attribute.
func redactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, RedactedPlaceholder)
	}
	if v, ok := a.Value.Any().(string); ok {
		return slog.String(a.Key, Redact(v))
	}
	return a
}

// isSensitiveKey checks if an attribute key is known to carry a credential.
func isSensitiveKey(key string) bool {
	for _, k := range []string{"authorization", "api_key", "apikey", "credential", "secret", "token"} {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
