// vidtrack/config/config_test.go
package config_test

import (
	"testing"
	"time"

	"vidtrack/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		t.Setenv("VIDTRACK_BACKEND_URL", "")
		t.Setenv("VIDTRACK_POLL_INTERVAL", "")
		t.Setenv("VIDTRACK_MAX_POLL_DURATION", "")
		t.Setenv("VIDTRACK_MAX_RESPONSE_SIZE", "")
		t.Setenv("VIDTRACK_AUTH_ENABLE", "")

		cfg, err := config.Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
		assert.Equal(t, 5*time.Second, cfg.PollInterval)
		assert.Equal(t, time.Duration(0), cfg.MaxPollDuration)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
		assert.Equal(t, int64(10*1024*1024), cfg.MaxResponseSize)
		assert.Equal(t, "8080", cfg.Port)
		assert.False(t, cfg.AuthEnable)
		assert.False(t, cfg.JSONLogs)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("VIDTRACK_BACKEND_URL", "https://jobs.example.com")
		t.Setenv("VIDTRACK_POLL_INTERVAL", "250ms")
		t.Setenv("VIDTRACK_MAX_POLL_DURATION", "10m")
		t.Setenv("VIDTRACK_MAX_RESPONSE_SIZE", "2MB")
		t.Setenv("VIDTRACK_AUTH_ENABLE", "true")
		t.Setenv("VIDTRACK_AUTH_KEY", "newsecret")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "https://jobs.example.com", cfg.BackendURL)
		assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
		assert.Equal(t, 10*time.Minute, cfg.MaxPollDuration)
		assert.Equal(t, int64(2*1024*1024), cfg.MaxResponseSize)
		assert.True(t, cfg.AuthEnable)
		assert.Equal(t, "newsecret", cfg.AuthKey)
	})

	t.Run("rejects a non-positive poll interval", func(t *testing.T) {
		t.Setenv("VIDTRACK_POLL_INTERVAL", "0s")

		_, err := config.Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "POLL_INTERVAL")
	})
}
