// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"errors"
	"fmt"
)

// ErrEmptyConversation is returned when Invoke is called with no messages.
var ErrEmptyConversation = errors.New("conversation must contain at least one message")

// ConfigurationError reports a required credential missing at resolve time.
// It is fatal and never retried; the message names the missing key so
// operators can fix the deployment.
type ConfigurationError struct {
	Key string // Configuration key that was not set
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("required credential %q is not configured", e.Key)
}

// ProviderError reports a failed outbound call after the retry budget is
// spent. The last-seen transport error is preserved and can be inspected
// through Unwrap.
type ProviderError struct {
	Provider string // Provider family name (openai, claude, gemini)
	Attempts int    // Number of attempts made before giving up
	Err      error  // Last error returned by the transport
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %d attempts exhausted: %v", e.Provider, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsConfigurationError checks if an error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
