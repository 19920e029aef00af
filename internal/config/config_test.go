package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GISTDA_API_KEY", "API_KEY", "HEAT_URL", "RAIN_URL", "HTTP_TIMEOUT", "FETCH_MAX_RETRIES",
		"REFRESH_INTERVAL", "DEFAULT_DATASET", "SIDEBAR_OPEN", "APP_ENV", "LOG_LEVEL", "PORT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.APIKey)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0, cfg.FetchMaxRetries)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, "heat", cfg.DefaultDataset)
	assert.True(t, cfg.SidebarOpen)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GISTDA_API_KEY", "primary")
	t.Setenv("API_KEY", "fallback")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("FETCH_MAX_RETRIES", "2")
	t.Setenv("REFRESH_INTERVAL", "10m")
	t.Setenv("DEFAULT_DATASET", "Rain")
	t.Setenv("SIDEBAR_OPEN", "false")
	t.Setenv("RAIN_URL", "http://localhost:9999/rain")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.APIKey)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.FetchMaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "rain", cfg.DefaultDataset)
	assert.False(t, cfg.SidebarOpen)
	assert.Equal(t, "http://localhost:9999/rain", cfg.RainURL)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "fallback")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"HTTP_TIMEOUT":      "soon",
		"REFRESH_INTERVAL":  "often",
		"FETCH_MAX_RETRIES": "-1",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)

			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("zero timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HTTP_TIMEOUT", "0s")

		_, err := Load()
		assert.Error(t, err)
	})
}
