// Package config provides configuration management using the Singleton pattern.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "MODELBRIDGE"
)

// credentialEnvVars maps credential config keys to the conventional
// environment variables each provider family publishes. These are bound in
// addition to the MODELBRIDGE_-prefixed form so standard deployments work
// without renaming their secrets.
var credentialEnvVars = map[string]string{
	"credentials.anthropic_api_key": "ANTHROPIC_API_KEY",
	"credentials.google_api_key":    "GOOGLE_API_KEY",
	"credentials.deepseek_api_key":  "DEEPSEEK_API_KEY",
	"credentials.openai_api_key":    "OPENAI_API_KEY",
}

// loadConfig loads the configuration from environment variables and files.
// Priority order (highest to lowest):
//  1. Environment variables (MODELBRIDGE_* and the conventional *_API_KEY names)
//  2. config.yaml
//  3. Default values
func loadConfig(configPath string) (*Configuration, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/modelbridge")
		v.AddConfigPath("$HOME/.modelbridge")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, env := range credentialEnvVars {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, &ConfigError{Op: "bind_env", Err: err}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
		// No config file is fine; credentials usually arrive via environment.
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 120)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
}
