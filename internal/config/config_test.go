package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2025, cfg.Schedule.SeasonYear)
	assert.Equal(t, 120, cfg.Itinerary.DefaultConcertMins)
	assert.Equal(t, "driving", cfg.Routing.Mode)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9000

[schedule]
path = "testdata/schedules"
season_year = 2026

[routing]
mode = "walking"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2026, cfg.Schedule.SeasonYear)
	assert.Equal(t, "walking", cfg.Routing.Mode)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"empty schedule path", func(c *Config) { c.Schedule.Path = "" }},
		{"absurd season year", func(c *Config) { c.Schedule.SeasonYear = 123 }},
		{"zero concert duration", func(c *Config) { c.Itinerary.DefaultConcertMins = 0 }},
		{"unknown routing mode", func(c *Config) { c.Routing.Mode = "rocket" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLLMAPIKeyFromEnvironment(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKeyEnvVar = "MARGAZHI_TEST_API_KEY"

	t.Setenv("MARGAZHI_TEST_API_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.LLMAPIKey())

	t.Setenv("MARGAZHI_TEST_API_KEY", "")
	assert.Empty(t, cfg.LLMAPIKey())
}
