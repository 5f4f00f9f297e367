// Package handler provides HTTP handlers for the modelbridge gateway.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/UOACoder/modelbridge/internal/adapter"
	"github.com/UOACoder/modelbridge/internal/config"
)

// ResolveFunc matches adapter.Resolve and is injectable so tests can route to
// a stub provider without network access.
type ResolveFunc func(model string, creds adapter.Credentials, opts ...adapter.Option) (adapter.Provider, error)

// ChatHandler serves the OpenAI-compatible chat completion endpoint, routing
// each request to the provider family the factory selects for its model name.
type ChatHandler struct {
	creds       adapter.Credentials
	resolve     ResolveFunc
	adapterOpts []adapter.Option
	cache       *ReplyCache
	usage       *UsageTracker
	logger      *slog.Logger
}

// ChatHandlerOption is a functional option for configuring ChatHandler.
type ChatHandlerOption func(*ChatHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ChatHandlerOption {
	return func(h *ChatHandler) {
		h.logger = logger
	}
}

// WithCache enables the reply cache.
func WithCache(cache *ReplyCache) ChatHandlerOption {
	return func(h *ChatHandler) {
		h.cache = cache
	}
}

// WithResolver replaces the adapter factory. Used by tests.
func WithResolver(resolve ResolveFunc) ChatHandlerOption {
	return func(h *ChatHandler) {
		h.resolve = resolve
	}
}

// WithAdapterOptions passes extra options to every constructed adapter.
func WithAdapterOptions(opts ...adapter.Option) ChatHandlerOption {
	return func(h *ChatHandler) {
		h.adapterOpts = opts
	}
}

// NewChatHandler creates a ChatHandler with the given resolved credentials.
func NewChatHandler(creds adapter.Credentials, opts ...ChatHandlerOption) *ChatHandler {
	h := &ChatHandler{
		creds:   creds,
		resolve: adapter.Resolve,
		usage:   &UsageTracker{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleChatCompletion handles POST /v1/chat/completions.
func (h *ChatHandler) HandleChatCompletion(c *gin.Context) {
	var req adapter.OpenAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendOpenAIError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
		return
	}

	if req.Model == "" {
		h.sendOpenAIError(c, http.StatusBadRequest, "invalid_request_error", "model is required")
		return
	}
	if len(req.Messages) == 0 {
		h.sendOpenAIError(c, http.StatusBadRequest, "invalid_request_error", "messages array is required")
		return
	}

	c.Set("model", req.Model)

	conv, cfg := toInvocation(req)

	// Deterministic requests can be served from cache verbatim.
	cacheKey, cacheable := h.cacheKey(req, cfg)
	if cacheable {
		if cached, ok := h.cache.Get(cacheKey); ok {
			c.Set("cache_hit", true)
			c.Data(http.StatusOK, "application/json", cached)
			return
		}
	}

	provider, err := h.resolve(req.Model, h.creds, h.adapterOpts...)
	if err != nil {
		if adapter.IsConfigurationError(err) {
			h.logger.Error("provider not configured",
				slog.String("model", req.Model),
				slog.String("error", err.Error()),
			)
			h.sendOpenAIError(c, http.StatusInternalServerError, "configuration_error", err.Error())
			return
		}
		h.sendOpenAIError(c, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	text, err := provider.Invoke(c.Request.Context(), conv, cfg)
	if err != nil {
		h.logger.Error("provider call failed",
			slog.String("model", req.Model),
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		h.sendOpenAIError(c, http.StatusBadGateway, "provider_error", "Upstream provider failed. Please try again later.")
		return
	}

	usage := EstimateUsage(promptText(conv), text)
	h.usage.Add(usage)

	resp := adapter.OpenAIResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []adapter.OpenAIChoice{
			{
				Index:        0,
				Message:      adapter.OpenAIMessage{Role: string(adapter.RoleAssistant), Content: text},
				FinishReason: "stop",
			},
		},
		Usage: usage,
	}

	if cacheable {
		if body, err := json.Marshal(resp); err == nil {
			h.cache.Set(cacheKey, body)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// HandleModels handles GET /v1/models, listing one entry per routable
// provider family that has a credential configured.
func (h *ChatHandler) HandleModels(c *gin.Context) {
	families := []struct {
		example string
		ownedBy string
		key     string
	}{
		{"claude-3-5-sonnet", "anthropic", h.creds.Anthropic},
		{"gemini-2.5-pro", "google", h.creds.Google},
		{"deepseek-chat", "deepseek", h.creds.DeepSeek},
		{"gpt-4o", "openai", h.creds.OpenAI},
	}

	data := make([]gin.H, 0, len(families))
	for _, f := range families {
		if f.key == "" {
			continue
		}
		data = append(data, gin.H{
			"id":       f.example,
			"object":   "model",
			"owned_by": f.ownedBy,
		})
	}

	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}

// HandleHealth handles GET /health.
func (h *ChatHandler) HandleHealth(cfg *config.Configuration) gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := cfg.ConfiguredProviders()

		status := "healthy"
		if len(configured) == 0 {
			status = "degraded"
		}

		prompt, output := h.usage.Totals()
		body := gin.H{
			"status":               status,
			"configured_providers": configured,
			"estimated_tokens": gin.H{
				"prompt":     prompt,
				"completion": output,
			},
		}
		if h.cache != nil {
			hits, misses := h.cache.Stats()
			body["cache"] = gin.H{"hits": hits, "misses": misses, "entries": h.cache.Len()}
		}

		c.JSON(http.StatusOK, body)
	}
}

// toInvocation converts the inbound wire request to the adapter layer's
// conversation and config.
func toInvocation(req adapter.OpenAIRequest) (adapter.Conversation, adapter.GenerationConfig) {
	conv := make(adapter.Conversation, len(req.Messages))
	for i, msg := range req.Messages {
		conv[i] = adapter.Message{Role: adapter.Role(msg.Role), Content: msg.Content}
	}

	cfg := adapter.GenerationConfig{}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	if req.MaxCompletionTokens != nil {
		cfg.MaxOutputTokens = *req.MaxCompletionTokens
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == string(adapter.FormatJSONObject) {
		cfg.ResponseFormat = adapter.FormatJSONObject
	}

	return conv, cfg
}

// cacheKey derives the cache key for a request, reporting whether the request
// is cacheable at all.
func (h *ChatHandler) cacheKey(req adapter.OpenAIRequest, cfg adapter.GenerationConfig) (string, bool) {
	if h.cache == nil || cfg.Temperature != 0 {
		return "", false
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	return HashRequest(body), true
}

// promptText flattens the conversation for token estimation.
func promptText(conv adapter.Conversation) string {
	var total string
	for _, msg := range conv {
		total += msg.Content + "\n"
	}
	return total
}

// sendOpenAIError answers in OpenAI-compatible error format so clients never
// see raw provider detail.
func (h *ChatHandler) sendOpenAIError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"message": message,
			"type":    errType,
			"code":    fmt.Sprintf("%d", status),
		},
	})
}
