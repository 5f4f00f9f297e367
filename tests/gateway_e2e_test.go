// Package tests provides end-to-end integration tests for the modelbridge
// gateway: client -> gin router -> factory-selected adapter -> mocked
// upstream provider.
package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/UOACoder/modelbridge/internal/adapter"
	"github.com/UOACoder/modelbridge/internal/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newMockUpstream simulates an OpenAI-compatible provider. Behavior keyed on
// the bearer credential:
//   - KEY_FLAKY: fail with 500 until the given attempt, then succeed
//   - KEY_DEAD:  always 500
//   - anything else: 200 with a fixed completion
func newMockUpstream(requestCounter *int32, succeedOnAttempt int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(requestCounter, 1)

		key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		fail := key == "KEY_DEAD" || (key == "KEY_FLAKY" && n < succeedOnAttempt)
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"message": "Internal server error",
					"type":    "server_error",
				},
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-upstream",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": "Hello from the mocked provider.",
					},
					"finish_reason": "stop",
				},
			},
		})
	}))
}

// newGateway wires the production router: real factory, real adapters, with
// the upstream base URL and a zero-delay retry policy swapped in.
func newGateway(creds adapter.Credentials, upstreamURL string, opts ...handler.ChatHandlerOption) *gin.Engine {
	adapterOpts := []adapter.Option{
		adapter.WithBaseURL(upstreamURL),
		adapter.WithRetryPolicy(adapter.RetryPolicy{MaxAttempts: adapter.DefaultMaxAttempts}),
	}
	opts = append([]handler.ChatHandlerOption{handler.WithAdapterOptions(adapterOpts...)}, opts...)

	chatHandler := handler.NewChatHandler(creds, opts...)

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(nil))
	router.Use(handler.CORSMiddleware())
	router.Use(handler.StripAuthHeadersMiddleware())

	router.POST("/v1/chat/completions", chatHandler.HandleChatCompletion)
	router.GET("/v1/models", chatHandler.HandleModels)

	return router
}

func postChat(t *testing.T, router *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGatewayE2E_HappyPath(t *testing.T) {
	var requests int32
	upstream := newMockUpstream(&requests, 0)
	defer upstream.Close()

	router := newGateway(adapter.Credentials{OpenAI: "KEY_GOOD"}, upstream.URL)

	w := postChat(t, router, map[string]any{
		"model": "gpt-4o",
		"messages": []map[string]any{
			{"role": "user", "content": "Hello, test!"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp adapter.OpenAIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not OpenAI format: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "Hello from the mocked provider." {
		t.Errorf("unexpected choices: %+v", resp.Choices)
	}
	if atomic.LoadInt32(&requests) != 1 {
		t.Errorf("upstream saw %d requests, want 1", requests)
	}
}

func TestGatewayE2E_RetryRecovery(t *testing.T) {
	var requests int32
	upstream := newMockUpstream(&requests, 4) // fail 3 times, succeed on 4th
	defer upstream.Close()

	router := newGateway(adapter.Credentials{OpenAI: "KEY_FLAKY"}, upstream.URL)

	w := postChat(t, router, map[string]any{
		"model": "gpt-4o",
		"messages": []map[string]any{
			{"role": "user", "content": "retry me"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := atomic.LoadInt32(&requests); got != 4 {
		t.Errorf("upstream saw %d requests, want 4", got)
	}
}

func TestGatewayE2E_RetryExhaustion(t *testing.T) {
	var requests int32
	upstream := newMockUpstream(&requests, 0)
	defer upstream.Close()

	router := newGateway(adapter.Credentials{OpenAI: "KEY_DEAD"}, upstream.URL)

	w := postChat(t, router, map[string]any{
		"model": "gpt-4o",
		"messages": []map[string]any{
			{"role": "user", "content": "doomed"},
		},
	})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body = %s", w.Code, w.Body.String())
	}
	if got := atomic.LoadInt32(&requests); got != adapter.DefaultMaxAttempts {
		t.Errorf("upstream saw %d requests, want the full budget of %d", got, adapter.DefaultMaxAttempts)
	}

	var errResp map[string]map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if errResp["error"]["type"] != "provider_error" {
		t.Errorf("error type = %v", errResp["error"]["type"])
	}
}

func TestGatewayE2E_MissingCredential(t *testing.T) {
	var requests int32
	upstream := newMockUpstream(&requests, 0)
	defer upstream.Close()

	router := newGateway(adapter.Credentials{OpenAI: "KEY_GOOD"}, upstream.URL)

	// Model routes to the Claude family, which has no credential configured.
	w := postChat(t, router, map[string]any{
		"model": "claude-3-5-sonnet",
		"messages": []map[string]any{
			{"role": "user", "content": "hi"},
		},
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("ANTHROPIC_API_KEY")) {
		t.Errorf("error should name the missing credential: %s", w.Body.String())
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Error("upstream must not be contacted when resolution fails")
	}
}

func TestGatewayE2E_CacheServesRepeats(t *testing.T) {
	var requests int32
	upstream := newMockUpstream(&requests, 0)
	defer upstream.Close()

	router := newGateway(adapter.Credentials{OpenAI: "KEY_GOOD"}, upstream.URL,
		handler.WithCache(handler.NewReplyCache()),
	)

	body := map[string]any{
		"model": "gpt-4o",
		"messages": []map[string]any{
			{"role": "user", "content": "deterministic"},
		},
		"temperature": 0,
	}

	first := postChat(t, router, body)
	second := postChat(t, router, body)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d", first.Code, second.Code)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached reply should be byte-identical to the first")
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("upstream saw %d requests, want 1", got)
	}
}

func TestGatewayE2E_ClaudeRouting(t *testing.T) {
	// A Claude-family model must hit the Anthropic wire protocol: x-api-key
	// header, top-level system field, SSE stream response.
	var sawHeader atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") == "sk-ant-test" && r.Header.Get("anthropic-version") != "" {
			sawHeader.Store(true)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		events := []string{
			`event: content_block_delta` + "\n" + `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Claude says hi"}}` + "\n\n",
			`event: message_stop` + "\n" + `data: {"type":"message_stop"}` + "\n\n",
		}
		for _, e := range events {
			w.Write([]byte(e))
		}
	}))
	defer upstream.Close()

	router := newGateway(adapter.Credentials{Anthropic: "sk-ant-test"}, upstream.URL)

	w := postChat(t, router, map[string]any{
		"model": "claude-3-5-sonnet",
		"messages": []map[string]any{
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": "hi"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !sawHeader.Load() {
		t.Error("upstream never saw Anthropic auth headers")
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Claude says hi")) {
		t.Errorf("body = %s", w.Body.String())
	}
}
