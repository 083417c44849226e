package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.StorageMode)
	assert.Equal(t, "5432", cfg.PostgresPort)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 2*time.Second, cfg.CacheTTL)
	assert.Equal(t, 256, cfg.EventBufferSize)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_MODE", "postgres")
	t.Setenv("CACHE_TTL", "500ms")
	t.Setenv("CACHE_MAX_ITEMS", "50")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.StorageMode)
	assert.Equal(t, 500*time.Millisecond, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.CacheMaxItems)
}

func TestLoadFromEnv_BadDurationFallsBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.CacheTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty-port", mutate: func(c *Config) { c.HTTPPort = "" }, wantErr: "HTTP_PORT"},
		{name: "bad-storage-mode", mutate: func(c *Config) { c.StorageMode = "redis" }, wantErr: "STORAGE_MODE"},
		{name: "zero-cache-items", mutate: func(c *Config) { c.CacheMaxItems = 0 }, wantErr: "CACHE_MAX_ITEMS"},
		{name: "zero-event-buffer", mutate: func(c *Config) { c.EventBufferSize = 0 }, wantErr: "EVENT_BUFFER_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				HTTPPort:        "8080",
				StorageMode:     "memory",
				CacheMaxItems:   100,
				EventBufferSize: 16,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
