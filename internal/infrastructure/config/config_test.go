package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/bin/sh", cfg.Shell.Interpreter)
	assert.Equal(t, 10000, cfg.Shell.HistoryCapacity)
	assert.Equal(t, 256, cfg.Shell.EventBuffer)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadUsesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/bin/sh", cfg.Shell.Interpreter)
	assert.Equal(t, 10000, cfg.Shell.HistoryCapacity)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SHELL_INTERPRETER", "/bin/bash")
	t.Setenv("SHELL_CWD", "/tmp")
	t.Setenv("HISTORY_CAPACITY", "500")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "/bin/bash", cfg.Shell.Interpreter)
	assert.Equal(t, "/tmp", cfg.Shell.InitialCwd)
	assert.Equal(t, 500, cfg.Shell.HistoryCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("HISTORY_CAPACITY", "lots")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 10000, cfg.Shell.HistoryCapacity)
}
