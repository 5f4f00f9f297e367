// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to abstract provider-specific wire protocols behind
// a common invocation interface.
package adapter

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout for provider calls.
const DefaultTimeout = 60 * time.Second

// Provider defines the interface for model provider adapters.
// All provider implementations must satisfy this interface.
type Provider interface {
	// Invoke sends the conversation to the provider and returns the generated
	// text, already corrected for any provider-specific transformation so
	// callers never see wire-level artifacts. The caller's conversation is
	// never mutated; adapters copy before restructuring.
	Invoke(ctx context.Context, conv Conversation, cfg GenerationConfig) (string, error)

	// Name returns the provider's identifier string.
	Name() string
}

// clientOptions holds construction-time settings shared by all adapters.
type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// Option is a functional option for configuring an adapter.
type Option func(*clientOptions)

// WithBaseURL sets a custom base URL for the provider's API.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client. A shared adapter relies on the
// client being safe for concurrent use, which *http.Client is.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.httpClient.Timeout = timeout
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *clientOptions) {
		o.retry = policy
	}
}

// defaultClientOptions returns the baseline settings applied before Options.
func defaultClientOptions(baseURL string) clientOptions {
	return clientOptions{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		retry: DefaultRetryPolicy(),
	}
}
