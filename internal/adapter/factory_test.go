package adapter

import (
	"errors"
	"testing"
)

func fullCredentials() Credentials {
	return Credentials{
		Anthropic: "sk-ant-test",
		Google:    "AIza-test",
		DeepSeek:  "sk-ds-test",
		OpenAI:    "sk-test",
	}
}

func TestResolve_Routing(t *testing.T) {
	tests := []struct {
		model       string
		wantName    string
		wantBaseURL string
	}{
		{"claude-3-5-sonnet", "claude", DefaultAnthropicBaseURL},
		{"gemini-2.5-pro", "gemini", DefaultGeminiBaseURL},
		{"deepseek-chat", "openai", DeepSeekBaseURL},
		{"gpt-4o", "openai", DefaultOpenAIBaseURL},
		{"o3-mini", "openai", DefaultOpenAIBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, err := Resolve(tt.model, fullCredentials())
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.model, err)
			}

			if provider.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", provider.Name(), tt.wantName)
			}

			var baseURL string
			switch p := provider.(type) {
			case *ClaudeAdapter:
				baseURL = p.baseURL
			case *GeminiAdapter:
				baseURL = p.baseURL
			case *OpenAIAdapter:
				baseURL = p.baseURL
			default:
				t.Fatalf("Resolve(%q) returned unexpected type %T", tt.model, provider)
			}
			if baseURL != tt.wantBaseURL {
				t.Errorf("baseURL = %s, want %s", baseURL, tt.wantBaseURL)
			}
		})
	}
}

// Ambiguous identifiers are resolved by rule priority, not specificity.
func TestResolve_PriorityOrder(t *testing.T) {
	provider, err := Resolve("claude-gemini-hybrid", fullCredentials())
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if _, ok := provider.(*ClaudeAdapter); !ok {
		t.Errorf("adapter type = %T, want *ClaudeAdapter (claude rule has priority)", provider)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	provider, err := Resolve("Claude-3-Opus", fullCredentials())
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if _, ok := provider.(*ClaudeAdapter); !ok {
		t.Errorf("adapter type = %T, want *ClaudeAdapter", provider)
	}
}

func TestResolve_MissingCredential(t *testing.T) {
	tests := []struct {
		model   string
		creds   Credentials
		wantKey string
	}{
		{"claude-3-5-sonnet", Credentials{Google: "g", DeepSeek: "d", OpenAI: "o"}, CredentialAnthropic},
		{"gemini-2.5-pro", Credentials{Anthropic: "a", DeepSeek: "d", OpenAI: "o"}, CredentialGoogle},
		{"deepseek-chat", Credentials{Anthropic: "a", Google: "g", OpenAI: "o"}, CredentialDeepSeek},
		{"gpt-4o", Credentials{Anthropic: "a", Google: "g", DeepSeek: "d"}, CredentialOpenAI},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			_, err := Resolve(tt.model, tt.creds)
			if err == nil {
				t.Fatal("Resolve succeeded, want ConfigurationError")
			}

			var confErr *ConfigurationError
			if !errors.As(err, &confErr) {
				t.Fatalf("error type = %T, want *ConfigurationError", err)
			}
			if confErr.Key != tt.wantKey {
				t.Errorf("ConfigurationError.Key = %q, want %q", confErr.Key, tt.wantKey)
			}
		})
	}
}

func TestResolve_OptionsReachAdapter(t *testing.T) {
	provider, err := Resolve("deepseek-chat", fullCredentials(), WithBaseURL("http://127.0.0.1:9999/"))
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}

	openAI, ok := provider.(*OpenAIAdapter)
	if !ok {
		t.Fatalf("adapter type = %T, want *OpenAIAdapter", provider)
	}
	// Caller options are applied after the DeepSeek endpoint override.
	if openAI.baseURL != "http://127.0.0.1:9999" {
		t.Errorf("baseURL = %s, want caller override to win", openAI.baseURL)
	}
}
