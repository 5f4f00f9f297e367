// Package handler provides HTTP handlers for the modelbridge gateway.
package handler

import (
	"strings"
	"sync"

	"github.com/UOACoder/modelbridge/internal/adapter"
)

// TokensPerWord is the approximation ratio (1 word ≈ 1.3 tokens).
// Adapters deliberately return text only, so the gateway estimates the usage
// block itself rather than parroting provider accounting.
const TokensPerWord = 1.3

// EstimateTokens estimates the number of tokens in a text string using a
// lightweight word-count approximation.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(float64(words)*TokensPerWord + 0.5)
}

// EstimateUsage fills an OpenAI-style usage block from prompt and completion
// text.
func EstimateUsage(prompt, completion string) adapter.OpenAIUsage {
	in := EstimateTokens(prompt)
	out := EstimateTokens(completion)
	return adapter.OpenAIUsage{
		PromptTokens:     in,
		CompletionTokens: out,
		TotalTokens:      in + out,
	}
}

// UsageTracker accumulates estimated token counts across requests for the
// health endpoint.
type UsageTracker struct {
	mu     sync.RWMutex
	prompt int64
	output int64
}

// Add records the usage of one completed request.
func (u *UsageTracker) Add(usage adapter.OpenAIUsage) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompt += int64(usage.PromptTokens)
	u.output += int64(usage.CompletionTokens)
}

// Totals reports the accumulated prompt and completion token estimates.
func (u *UsageTracker) Totals() (prompt, output int64) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.prompt, u.output
}
