package config_test

import (
	"testing"

	"sitepulse/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("SITEPULSE_ENV", "test")

	cfg := config.GetConfig()

	assert.Equal(t, "sitepulse", cfg.AppName)
	assert.Equal(t, "3000", cfg.GetPort())
	assert.Equal(t, 2000, cfg.QueryWindowMaxEvents)
	assert.Equal(t, 90, cfg.EventsRetentionDays)
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProduction())
}

func TestGetConfigEnvOverrides(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("SITEPULSE_ENV", "test")
	t.Setenv("SITEPULSE_APP_PORT", "8080")
	t.Setenv("SITEPULSE_QUERY_WINDOW_MAX_EVENTS", "500")
	t.Setenv("SITEPULSE_EVENTS_RETENTION_DAYS", "30")

	cfg := config.GetConfig()

	assert.Equal(t, "8080", cfg.GetPort())
	assert.Equal(t, 500, cfg.QueryWindowMaxEvents)
	assert.Equal(t, 30, cfg.EventsRetentionDays)
}

func TestConnectionPoolDefaults(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("SITEPULSE_ENV", "test")

	cfg := config.GetConfig()

	// Single connection in tests keeps in-memory SQLite stable.
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
	assert.Equal(t, 1, cfg.GetMaxIdleConns())
}

func TestDatabasePathDerivation(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("SITEPULSE_ENV", "test")

	cfg := config.GetConfig()
	require.NotEmpty(t, cfg.DatabaseName)
	assert.Contains(t, cfg.DatabaseName, "sitepulse-test.db")
	assert.Equal(t, cfg.DatabaseName, cfg.DatabaseDSN())
}
