package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "http://localhost:9090", cfg.App.PublicURL)
	assert.Equal(t, "__session", cfg.Identity.SessionCookie)
	assert.Equal(t, 24*time.Hour, cfg.ActionToken.TTL())
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxUploadBytes())
	assert.Nil(t, cfg.Calendar.TokenKey())
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ACTION_TOKEN_SECRET"))

	t.Setenv("ACTION_TOKEN_SECRET", "s3cret")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CALENDAR_TOKEN_KEY")

	t.Setenv("CALENDAR_TOKEN_KEY", testTokenKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Calendar.TokenKey(), 32)
}

func TestLoad_RejectsShortTokenKey(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CALENDAR_TOKEN_KEY", "abcd")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestAppConfig_RequestTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
	assert.Equal(t, 15*time.Second, AppConfig{RequestTimeoutSeconds: 15}.RequestTimeout())
}
