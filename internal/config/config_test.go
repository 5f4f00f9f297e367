package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/UOACoder/modelbridge/internal/adapter"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(writeConfigFile(t, "{}"))
	if err != nil {
		t.Fatalf("loadConfig error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache.enabled = false, want true by default")
	}
	if cfg.Cache.TTLSeconds != 300 {
		t.Errorf("cache.ttl_seconds = %d, want 300", cfg.Cache.TTLSeconds)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %s, want info", cfg.Logging.Level)
	}
}

func TestLoadConfig_ConventionalCredentialEnvVars(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := loadConfig(writeConfigFile(t, "{}"))
	if err != nil {
		t.Fatalf("loadConfig error = %v", err)
	}

	if cfg.Credentials.Anthropic != "sk-ant-from-env" {
		t.Errorf("credentials.anthropic = %q, want value from ANTHROPIC_API_KEY", cfg.Credentials.Anthropic)
	}
	if cfg.Credentials.OpenAI != "sk-from-env" {
		t.Errorf("credentials.openai = %q, want value from OPENAI_API_KEY", cfg.Credentials.OpenAI)
	}
	if cfg.Credentials.Google != "" {
		t.Errorf("credentials.google = %q, want empty", cfg.Credentials.Google)
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9191
cache:
  enabled: false
credentials:
  deepseek_api_key: sk-ds-from-file
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig error = %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("server.port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled = true, want false from file")
	}
	if cfg.Credentials.DeepSeek != "sk-ds-from-file" {
		t.Errorf("credentials.deepseek = %q, want value from file", cfg.Credentials.DeepSeek)
	}
}

func TestLoadConfig_InvalidValuesRejected(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"negative cache ttl", "cache:\n  ttl_seconds: -1\n"},
		{"unknown log level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfigFile(t, tt.yaml))
			if err == nil {
				t.Fatal("loadConfig succeeded, want validation error")
			}
			if !IsValidationError(err) {
				t.Errorf("error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestConfiguredProviders(t *testing.T) {
	cfg := &Configuration{
		Credentials: CredentialConfig{Anthropic: "a", OpenAI: "o"},
	}

	got := cfg.ConfiguredProviders()
	want := []string{adapter.CredentialAnthropic, adapter.CredentialOpenAI}
	if len(got) != len(want) {
		t.Fatalf("ConfiguredProviders() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ConfiguredProviders()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestProviderCredentials(t *testing.T) {
	cfg := &Configuration{
		Credentials: CredentialConfig{
			Anthropic: "a", Google: "g", DeepSeek: "d", OpenAI: "o",
		},
	}

	creds := cfg.ProviderCredentials()
	if creds.Anthropic != "a" || creds.Google != "g" || creds.DeepSeek != "d" || creds.OpenAI != "o" {
		t.Errorf("ProviderCredentials() = %+v, want all slots carried over", creds)
	}
}

// writeConfigFile writes yaml content to a temp config file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}
