package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "chatrizz", cfg.DBName)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, 168*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, 5*time.Second, cfg.TranslateTimeout)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, 1.0, cfg.TraceSampleRate)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("TRANSLATE_URL", "http://libretranslate:5000")
	t.Setenv("TRANSLATE_TIMEOUT", "2s")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://libretranslate:5000", cfg.TranslateURL)
	assert.Equal(t, 2*time.Second, cfg.TranslateTimeout)
	assert.True(t, cfg.TracingEnabled)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
