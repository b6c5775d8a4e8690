package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, 15*time.Second, cfg.Backend.FetchTimeout)
	assert.Equal(t, 3, cfg.Backend.MaxRetries)
	assert.Equal(t, time.Second, cfg.Backend.BackoffStep)
	assert.Equal(t, 8, cfg.Calendar.UpcomingLimit)
	assert.True(t, cfg.Features.Library)
	assert.Empty(t, cfg.Backend.APIURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BACKEND_API_URL", "https://school.example.com/")
	t.Setenv("FEATURE_HOSTEL", "false")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://school.example.com", cfg.Backend.APIURL)
	assert.False(t, cfg.Features.Hostel)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
