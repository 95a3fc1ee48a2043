package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/spares-console/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 5*time.Minute, c.GetUserCacheTTL())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.StorageBackendFile, c.GetStorageBackend())
	require.Equal(t, "http://localhost:8000/api", c.GetAPIURL())
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_URL", "https://api.example.com/api/")
	t.Setenv("USER_CACHE_TTL", "90s")
	t.Setenv("STORAGE_BACKEND", "REDIS")
	t.Setenv("REDIS_DB", "3")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://api.example.com/api", c.GetAPIURL())
	require.Equal(t, 90*time.Second, c.GetUserCacheTTL())
	require.Equal(t, config.StorageBackendRedis, c.GetStorageBackend())
	require.Equal(t, 3, c.GetRedisDB())
}

func TestNew_RejectsUnknownStorageBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")

	_, err := config.New()
	require.Error(t, err)
	require.Contains(t, err.Error(), "STORAGE_BACKEND")
}

func TestNew_RejectsBadDuration(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")

	_, err := config.New()
	require.Error(t, err)
}
