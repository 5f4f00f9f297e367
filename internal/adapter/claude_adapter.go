// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultAnthropicBaseURL is the default endpoint for the Anthropic API.
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

	// anthropicVersion is the API version header required on every call.
	anthropicVersion = "2023-06-01"

	// jsonPrefill is the synthetic assistant turn appended when JSON output
	// is requested. The provider continues generation as if it had already
	// emitted the opening brace, which suppresses prose preambles.
	jsonPrefill = "{"
)

// ClaudeAdapter implements Provider for Anthropic Claude models.
//
// The Anthropic protocol takes the system instruction as a separate top-level
// field rather than as part of the message array, so a leading system message
// is lifted out before sending. When FormatJSONObject is requested the adapter
// pre-fills the assistant's reply with "{"; since the provider never repeats a
// turn it was handed, the brace is prepended back onto the returned text so
// callers always receive syntactically openable JSON.
type ClaudeAdapter struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewClaudeAdapter creates an adapter for Anthropic Claude models.
func NewClaudeAdapter(model, apiKey string, opts ...Option) *ClaudeAdapter {
	o := defaultClientOptions(DefaultAnthropicBaseURL)
	for _, opt := range opts {
		opt(&o)
	}
	return &ClaudeAdapter{
		model:      model,
		apiKey:     apiKey,
		baseURL:    o.baseURL,
		httpClient: o.httpClient,
		retry:      o.retry,
	}
}

// Name returns the provider identifier.
func (a *ClaudeAdapter) Name() string {
	return "claude"
}

// anthropicMessage is one turn in the Anthropic message array.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicRequest is the wire format for the messages endpoint.
type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
}

// anthropicStreamEvent is the subset of stream event payloads the adapter
// aggregates. Content arrives as content_block_delta events carrying
// text_delta fragments.
type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Invoke sends the conversation to the Anthropic messages endpoint. The
// response is streamed and fully drained internally; no incremental chunk is
// ever exposed to the caller. A connection dropped mid-stream fails the
// attempt and enters the shared retry loop like any other transport error.
func (a *ClaudeAdapter) Invoke(ctx context.Context, conv Conversation, cfg GenerationConfig) (string, error) {
	if len(conv) == 0 {
		return "", ErrEmptyConversation
	}

	system, active := conv.SplitSystem()

	messages := make([]anthropicMessage, 0, len(active)+1)
	for _, msg := range active {
		messages = append(messages, anthropicMessage{Role: string(msg.Role), Content: msg.Content})
	}

	prefilled := cfg.ResponseFormat == FormatJSONObject
	if prefilled {
		messages = append(messages, anthropicMessage{Role: string(RoleAssistant), Content: jsonPrefill})
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       a.model,
		System:      system,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   effectiveMaxTokens(cfg),
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	var text string
	err = a.retry.Do(func() error {
		var attemptErr error
		text, attemptErr = a.stream(ctx, body)
		return attemptErr
	})
	if err != nil {
		return "", &ProviderError{Provider: a.Name(), Attempts: a.retry.attempts(), Err: err}
	}

	if prefilled {
		text = jsonPrefill + text
	}
	return text, nil
}

// stream performs one streaming attempt and returns the aggregated text of
// the first content block.
func (a *ClaudeAdapter) stream(ctx context.Context, body []byte) (string, error) {
	url := a.baseURL + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute anthropic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		return "", fmt.Errorf("anthropic API error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var firstBlock strings.Builder
	var sawStop bool
	err = readSSE(resp.Body, func(event string, data []byte) error {
		var ev anthropicStreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			// Frames the adapter does not understand are drained, not fatal.
			return nil
		}
		if ev.Type == "" {
			ev.Type = event
		}

		switch ev.Type {
		case "content_block_delta":
			// Only the first content block's text reaches the caller.
			if ev.Index == 0 && ev.Delta.Type == "text_delta" {
				firstBlock.WriteString(ev.Delta.Text)
			}
		case "message_stop":
			sawStop = true
		case "error":
			return fmt.Errorf("anthropic stream error [%s]: %s", ev.Error.Type, ev.Error.Message)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	// A stream that ends without message_stop was cut off, even when the
	// connection closed cleanly. The partial aggregate is never surfaced.
	if !sawStop {
		return "", fmt.Errorf("anthropic stream ended before message_stop; aggregated %d bytes discarded", firstBlock.Len())
	}

	return firstBlock.String(), nil
}

// readSSE consumes a server-sent-event stream, invoking onFrame once per
// complete frame. It returns the first error from the reader or the callback;
// a stream cut off mid-frame surfaces as a read error.
func readSSE(r io.Reader, onFrame func(event string, data []byte) error) error {
	reader := bufio.NewReader(r)
	var eventName string
	var dataLines []string

	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		payload := strings.Join(dataLines, "\n")
		err := onFrame(eventName, []byte(payload))
		eventName = ""
		dataLines = nil
		return err
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if fErr := flush(); fErr != nil {
				return fErr
			}
		case strings.HasPrefix(line, ":"):
			// comment line
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
		}

		if err == io.EOF {
			return flush()
		}
	}
}
