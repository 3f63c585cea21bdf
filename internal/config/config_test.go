package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestNewFlagsWin(t *testing.T) {
	cfg, err := New([]string{"--port", "9999", "--database_url", "postgres://localhost/ballots"})
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "postgres://localhost/ballots", cfg.DatabaseURL)
}

func TestNewEnvFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_URI", "redis://localhost:6379/0")

	cfg, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURI)
}

func TestNotificationsEnabled(t *testing.T) {
	cfg := &Config{
		TwilioAccountSID: "AC123",
		TwilioAuthToken:  "token",
		TwilioFrom:       "+15550001111",
	}
	assert.False(t, cfg.NotificationsEnabled(), "admin phone missing")

	cfg.AdminPhone = "+15550002222"
	assert.True(t, cfg.NotificationsEnabled())
}

func TestNewRejectsUnknownFlag(t *testing.T) {
	_, err := New([]string{"--definitely-not-a-flag"})
	assert.Error(t, err)
}
