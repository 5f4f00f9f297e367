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
	// DefaultGeminiBaseURL is the default Gemini API endpoint.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// geminiSystemAck is the fixed synthetic model turn emitted after a
	// leading system message. Gemini has no system role, so the instruction
	// is delivered as a user turn the model has already acknowledged.
	geminiSystemAck = "Understood."
)

// GeminiAdapter implements Provider for Google Gemini models.
//
// The Gemini protocol uses a two-role scheme, "user" and "model". A leading
// system message becomes two synthetic turns: a user turn carrying the system
// content followed by a fixed model acknowledgment. Every other non-user role,
// including assistant, maps to "model".
//
// Known limitation: GenerationConfig.ResponseFormat is accepted but has no
// enforcement path for this provider. Requesting FormatJSONObject produces a
// request identical to one without it. Callers that need guaranteed JSON must
// route to a provider with a forcing mechanism.
type GeminiAdapter struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewGeminiAdapter creates an adapter for Google Gemini models.
func NewGeminiAdapter(model, apiKey string, opts ...Option) *GeminiAdapter {
	o := defaultClientOptions(DefaultGeminiBaseURL)
	for _, opt := range opts {
		opt(&o)
	}
	return &GeminiAdapter{
		model:      model,
		apiKey:     apiKey,
		baseURL:    o.baseURL,
		httpClient: o.httpClient,
		retry:      o.retry,
	}
}

// Name returns the provider identifier.
func (a *GeminiAdapter) Name() string {
	return "gemini"
}

// GeminiContent represents a content block in Gemini format.
type GeminiContent struct {
	Role  string       `json:"role"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of a content block.
type GeminiPart struct {
	Text string `json:"text"`
}

// geminiGenerationConfig contains generation parameters.
type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// geminiRequest represents a generateContent request.
type geminiRequest struct {
	Contents         []GeminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// geminiResponse represents a generateContent response.
type geminiResponse struct {
	Candidates []struct {
		Content GeminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiErrorResponse represents an error response from the Gemini API.
type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Invoke remaps the conversation to the two-role scheme and calls the
// generateContent endpoint, retrying failures under the shared policy.
func (a *GeminiAdapter) Invoke(ctx context.Context, conv Conversation, cfg GenerationConfig) (string, error) {
	if len(conv) == 0 {
		return "", ErrEmptyConversation
	}

	body, err := a.buildRequestBody(conv, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
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
// ResponseFormat is deliberately not consulted; see the type doc.
func (a *GeminiAdapter) buildRequestBody(conv Conversation, cfg GenerationConfig) ([]byte, error) {
	return json.Marshal(geminiRequest{
		Contents: remapContents(conv),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: effectiveMaxTokens(cfg),
		},
	})
}

// remapContents converts the conversation to Gemini's two-role scheme.
func remapContents(conv Conversation) []GeminiContent {
	contents := make([]GeminiContent, 0, len(conv)+1)

	system, active := conv.SplitSystem()
	if system != "" || len(active) != len(conv) {
		contents = append(contents,
			GeminiContent{Role: "user", Parts: []GeminiPart{{Text: system}}},
			GeminiContent{Role: "model", Parts: []GeminiPart{{Text: geminiSystemAck}}},
		)
	}

	for _, msg := range active {
		role := "model"
		if msg.Role == RoleUser {
			role = "user"
		}
		contents = append(contents, GeminiContent{
			Role:  role,
			Parts: []GeminiPart{{Text: msg.Content}},
		})
	}

	return contents
}

// send performs one attempt against the generateContent endpoint.
func (a *GeminiAdapter) send(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var geminiErr geminiErrorResponse
		if err := json.Unmarshal(respBody, &geminiErr); err == nil && geminiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini API error [%d]: %s", resp.StatusCode, geminiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini API error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini response contained no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
