package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2, cfg.Game.MinPlayers)
	assert.Equal(t, 80, cfg.Game.DefaultDrawTime)
	assert.Equal(t, 3, cfg.Game.DefaultRounds)
	assert.Equal(t, "general", cfg.Game.DefaultTheme)
	assert.Equal(t, 15*time.Second, cfg.Game.AutoPickTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Game.EmptyRoomGrace)
	assert.Equal(t, 5*time.Minute, cfg.Game.DenyListTTL)
	assert.Equal(t, int64(8192), cfg.Limits.MaxMessageSize)
	assert.Equal(t, float64(10), cfg.Limits.SessionRate)
	assert.Equal(t, 20, cfg.Limits.SessionBurst)
	assert.Equal(t, 2*time.Second, cfg.Store.WriteTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Store.Retention)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Sentry.DSN)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DEFAULT_DRAW_TIME", "120")
	t.Setenv("AUTO_PICK_TIMEOUT", "20s")
	t.Setenv("THEME_FILE", "custom-themes.yaml")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SESSION_RATE", "2.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 120, cfg.Game.DefaultDrawTime)
	assert.Equal(t, 20*time.Second, cfg.Game.AutoPickTimeout)
	assert.Equal(t, "custom-themes.yaml", cfg.Game.ThemeFile)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2.5, cfg.Limits.SessionRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("DEFAULT_ROUNDS", "lots")
	t.Setenv("EMPTY_ROOM_GRACE", "soon")
	t.Setenv("SENTRY_DEBUG", "yep")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Game.DefaultRounds)
	assert.Equal(t, 2*time.Minute, cfg.Game.EmptyRoomGrace)
	assert.False(t, cfg.Sentry.Debug)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("PORT", "70000")
	_, err := Load()
	require.Error(t, err)
}

func TestValidateGameConfig(t *testing.T) {
	cfg := loadGameConfig()
	require.NoError(t, validateGameConfig(cfg))

	bad := cfg
	bad.MinPlayers = 1
	require.Error(t, validateGameConfig(bad))

	bad = cfg
	bad.DefaultDrawTime = 200
	require.Error(t, validateGameConfig(bad))

	bad = cfg
	bad.DefaultTheme = ""
	require.Error(t, validateGameConfig(bad))

	bad = cfg
	bad.SettleDelay = 0
	require.Error(t, validateGameConfig(bad))
}

func TestValidateLoggingConfig(t *testing.T) {
	require.NoError(t, validateLoggingConfig(LoggingConfig{Level: "warn", Service: "s", Environment: "dev"}))
	require.Error(t, validateLoggingConfig(LoggingConfig{Level: "loud", Service: "s", Environment: "dev"}))
	require.Error(t, validateLoggingConfig(LoggingConfig{Level: "info", Service: "", Environment: "dev"}))
}
