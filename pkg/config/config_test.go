package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "REQUEST_TIMEOUT", "WORKER_POOL_SIZE", "RATE_LIMIT_PER_SECOND",
		"RATE_LIMIT_BURST", "MAX_PAGE_BYTES", "USER_AGENT", "ADS_API_URL", "ADS_ACCESS_TOKEN",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Worker.PoolSize)
	assert.Equal(t, 10.0, cfg.Fetch.RateLimitPerSecond)
	assert.Equal(t, 5, cfg.Fetch.RateLimitBurst)
	assert.Equal(t, int64(2097152), cfg.Fetch.MaxPageBytes)
	assert.Equal(t, "surgly-bot/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, "https://graph.facebook.com/v19.0", cfg.External.AdsAPIURL)
	assert.Empty(t, cfg.External.AdsAccessToken)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("WORKER_POOL_SIZE", "12")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("ADS_API_URL", "http://localhost:4000/v1/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 12, cfg.Worker.PoolSize)
	assert.Equal(t, 2.5, cfg.Fetch.RateLimitPerSecond)
	assert.Equal(t, "http://localhost:4000/v1", cfg.External.AdsAPIURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("WORKER_POOL_SIZE", "0")
	t.Setenv("RATE_LIMIT_BURST", "lots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 1, cfg.Worker.PoolSize)
	assert.Equal(t, 5, cfg.Fetch.RateLimitBurst)
}
