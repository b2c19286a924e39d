package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rulecraft.db", cfg.DatabasePath)
	assert.Empty(t, cfg.ClaudeAPIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.ClaudeModel)
	assert.Equal(t, 1024, cfg.ClaudeMaxTokens)
	assert.Equal(t, 3000, cfg.Port)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_PATH", "/tmp/other.db")
	t.Setenv("CLAUDE_API_KEY", "sk-test")
	t.Setenv("CLAUDE_MODEL", "claude-haiku-test")
	t.Setenv("CLAUDE_MAX_TOKENS", "512")
	t.Setenv("PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, "sk-test", cfg.ClaudeAPIKey)
	assert.Equal(t, "claude-haiku-test", cfg.ClaudeModel)
	assert.Equal(t, 512, cfg.ClaudeMaxTokens)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}
