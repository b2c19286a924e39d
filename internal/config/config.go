// Package config loads application configuration from the environment and an
// optional config.yaml, and hands it to the rest of the program as an
// explicit value.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds everything the server and CLI need. ClaudeAPIKey may be
// empty; ruling requests are rejected at the boundary in that case.
type Config struct {
	DatabasePath    string
	ClaudeAPIKey    string
	ClaudeModel     string
	ClaudeMaxTokens int
	Port            int
}

const (
	defaultDatabasePath = "rulecraft.db"
	defaultClaudeModel  = "claude-sonnet-4-20250514"
	defaultMaxTokens    = 1024
	defaultPort         = 3000
)

// Load reads configuration with env variables taking precedence over
// config.yaml in the working directory. A missing config file is not an
// error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("database_path", defaultDatabasePath)
	v.SetDefault("claude_model", defaultClaudeModel)
	v.SetDefault("claude_max_tokens", defaultMaxTokens)
	v.SetDefault("port", defaultPort)

	v.BindEnv("database_path", "DATABASE_PATH")
	v.BindEnv("claude_api_key", "CLAUDE_API_KEY")
	v.BindEnv("claude_model", "CLAUDE_MODEL")
	v.BindEnv("claude_max_tokens", "CLAUDE_MAX_TOKENS")
	v.BindEnv("port", "PORT")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		DatabasePath:    v.GetString("database_path"),
		ClaudeAPIKey:    v.GetString("claude_api_key"),
		ClaudeModel:     v.GetString("claude_model"),
		ClaudeMaxTokens: v.GetInt("claude_max_tokens"),
		Port:            v.GetInt("port"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}

	return cfg, nil
}
