// Package adapter provides implementations for external AI provider integrations.
package adapter

// OpenAI-compatible request/response wire types. They are shared by the
// OpenAI-protocol adapter (outbound) and the gateway handler (inbound), since
// both speak the same chat-completion format.

// OpenAIRequest represents an OpenAI chat completion request.
type OpenAIRequest struct {
	// Model specifies which model to use (e.g., "gpt-4o", "deepseek-chat").
	Model string `json:"model"`

	// Messages contains the ordered conversation history.
	Messages []OpenAIMessage `json:"messages"`

	// Temperature controls randomness (0.0-2.0). Optional.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxCompletionTokens limits the response length. Optional.
	MaxCompletionTokens *int `json:"max_completion_tokens,omitempty"`

	// ResponseFormat requests output shaping (e.g., a JSON object). Optional.
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`

	// Stop sequences to halt generation. Optional.
	Stop []string `json:"stop,omitempty"`

	// User is a unique identifier for the end-user. Optional.
	User string `json:"user,omitempty"`
}

// OpenAIResponseFormat selects the response shaping mode.
type OpenAIResponseFormat struct {
	// Type is "text" or "json_object".
	Type string `json:"type"`
}

// OpenAIMessage represents a single message in the conversation.
type OpenAIMessage struct {
	// Role is one of: "system", "user", "assistant".
	Role string `json:"role"`

	// Content is the message text content.
	Content string `json:"content"`
}

// OpenAIResponse represents an OpenAI chat completion response.
type OpenAIResponse struct {
	// ID is the unique identifier for this completion.
	ID string `json:"id"`

	// Object is always "chat.completion".
	Object string `json:"object"`

	// Created is the Unix timestamp of when the completion was created.
	Created int64 `json:"created"`

	// Model is the model used for completion.
	Model string `json:"model"`

	// Choices contains the generated completions.
	Choices []OpenAIChoice `json:"choices"`

	// Usage contains token usage statistics.
	Usage OpenAIUsage `json:"usage"`
}

// OpenAIChoice represents a single completion choice.
type OpenAIChoice struct {
	// Index is the position of this choice in the list.
	Index int `json:"index"`

	// Message contains the generated message.
	Message OpenAIMessage `json:"message"`

	// FinishReason indicates why the model stopped generating.
	FinishReason string `json:"finish_reason"`
}

// OpenAIUsage contains token usage statistics.
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIError represents an error response from OpenAI-compatible APIs.
type OpenAIError struct {
	Error OpenAIErrorDetail `json:"error"`
}

// OpenAIErrorDetail contains the error details.
type OpenAIErrorDetail struct {
	// Message is the human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error (e.g., "invalid_request_error").
	Type string `json:"type"`

	// Code is the error code. Optional.
	Code string `json:"code,omitempty"`
}
