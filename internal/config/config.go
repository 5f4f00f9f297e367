// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"

	"github.com/UOACoder/modelbridge/internal/adapter"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Provider credential slots
	Credentials CredentialConfig `json:"credentials" mapstructure:"credentials"`

	// Cache configuration
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds gateway server configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeoutSeconds is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeoutSeconds is the maximum duration before timing out response writes.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeoutSeconds is the maximum wait for active connections on shutdown.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// CredentialConfig holds one opaque bearer credential per provider family.
// Values are never logged; see internal/security.
type CredentialConfig struct {
	Anthropic string `json:"-" mapstructure:"anthropic_api_key"`
	Google    string `json:"-" mapstructure:"google_api_key"`
	DeepSeek  string `json:"-" mapstructure:"deepseek_api_key"`
	OpenAI    string `json:"-" mapstructure:"openai_api_key"`
}

// CacheConfig holds the gateway reply cache configuration.
type CacheConfig struct {
	// Enabled toggles the in-memory reply cache.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTLSeconds is the lifetime of a cached reply.
	TTLSeconds int `json:"ttl_seconds" mapstructure:"ttl_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance loaded from a
// custom config file path.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance and panics when
// loading fails. Use only where the application cannot proceed without it.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance. Primarily for tests.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// ProviderCredentials converts the credential slots to the adapter layer's
// injection struct. Resolution happens once here; adapters never read the
// environment themselves.
func (c *Configuration) ProviderCredentials() adapter.Credentials {
	return adapter.Credentials{
		Anthropic: c.Credentials.Anthropic,
		Google:    c.Credentials.Google,
		DeepSeek:  c.Credentials.DeepSeek,
		OpenAI:    c.Credentials.OpenAI,
	}
}

// ConfiguredProviders returns the credential slot names that hold a value.
// Used by the health endpoint and the startup banner.
func (c *Configuration) ConfiguredProviders() []string {
	var out []string
	if c.Credentials.Anthropic != "" {
		out = append(out, adapter.CredentialAnthropic)
	}
	if c.Credentials.Google != "" {
		out = append(out, adapter.CredentialGoogle)
	}
	if c.Credentials.DeepSeek != "" {
		out = append(out, adapter.CredentialDeepSeek)
	}
	if c.Credentials.OpenAI != "" {
		out = append(out, adapter.CredentialOpenAI)
	}
	return out
}

// Validate validates the configuration and returns an error if values are out
// of range.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	if c.Cache.TTLSeconds < 0 {
		validationErrors = append(validationErrors, "cache.ttl_seconds must not be negative")
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}
	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
