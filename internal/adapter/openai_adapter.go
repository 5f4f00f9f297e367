// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultOpenAIBaseURL is the default endpoint for the OpenAI API.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DeepSeekBaseURL is the endpoint override used by the DeepSeek branch
	// of the factory. DeepSeek speaks the OpenAI wire protocol.
	DeepSeekBaseURL = "https://api.deepseek.com"
)

// OpenAIAdapter implements Provider for any backend that speaks the OpenAI
// chat-completion wire protocol (OpenAI itself, DeepSeek, vLLM deployments).
// Messages pass through unmodified: no role remapping, no restructuring.
type OpenAIAdapter struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewOpenAIAdapter creates an adapter for an OpenAI-protocol backend.
func NewOpenAIAdapter(model, apiKey string, opts ...Option) *OpenAIAdapter {
	o := defaultClientOptions(DefaultOpenAIBaseURL)
	for _, opt := range opts {
		opt(&o)
	}
	return &OpenAIAdapter{
		model:      model,
		apiKey:     apiKey,
		baseURL:    o.baseURL,
		httpClient: o.httpClient,
		retry:      o.retry,
	}
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Invoke performs a chat completion call, retrying failures under the shared
// policy, and returns the first choice's text.
func (a *OpenAIAdapter) Invoke(ctx context.Context, conv Conversation, cfg GenerationConfig) (string, error) {
	if len(conv) == 0 {
		return "", ErrEmptyConversation
	}

	body, err := a.buildRequestBody(conv, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openai request: %w", err)
	}

	var text string
	err = a.retry.Do(func() error {
		var attemptErr error
		text, attemptErr = a.send(ctx, body)
		return attemptErr
	})
	if err != nil {
		return "", &ProviderError{Provider: a.Name(), Attempts: a.retry.attempts(), Err: err}
	}
	return text, nil
}

// buildRequestBody maps the conversation and config to the wire format.
// Roles and content pass through as-is.
func (a *OpenAIAdapter) buildRequestBody(conv Conversation, cfg GenerationConfig) ([]byte, error) {
	messages := make([]OpenAIMessage, len(conv))
	for i, msg := range conv {
		messages[i] = OpenAIMessage{Role: string(msg.Role), Content: msg.Content}
	}

	maxTokens := effectiveMaxTokens(cfg)
	req := OpenAIRequest{
		Model:               a.model,
		Messages:            messages,
		Temperature:         &cfg.Temperature,
		MaxCompletionTokens: &maxTokens,
	}
	if cfg.ResponseFormat == FormatJSONObject {
		req.ResponseFormat = &OpenAIResponseFormat{Type: string(FormatJSONObject)}
	}

	return json.Marshal(req)
}

// send performs one attempt against the chat completions endpoint.
func (a *OpenAIAdapter) send(ctx context.Context, body []byte) (string, error) {
	url := a.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute openai request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr OpenAIError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("openai API error [%d]: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("openai API error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed OpenAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
