package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// run from an empty dir so no stray config.yaml leaks in
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "gateway.db", cfg.Store.DSN)
	assert.Equal(t, 5*time.Minute, cfg.Registry.TTL)
	assert.Equal(t, time.Hour, cfg.Registry.EmbedCacheTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Empty(t, cfg.Auth.APIKeys)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9090"
  env: production
registry:
  ttl: 30s
rate_limit:
  requests_per_second: 50
  burst: 100
auth:
  api_keys:
    - sk-gw-test
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, 30*time.Second, cfg.Registry.TTL)
	assert.Equal(t, 50.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"sk-gw-test"}, cfg.Auth.APIKeys)
	// file overrides some keys, defaults still fill the rest
	assert.Equal(t, "gateway.db", cfg.Store.DSN)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "3000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
}
