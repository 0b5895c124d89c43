package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/experiments
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/experiments", cfg.Database.URL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 86400, cfg.Redis.TTLSeconds)
	assert.Equal(t, "price", cfg.Results.RevenueProperty)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Auth.Tokens)
}

func TestLoadReadsAllSections(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
database:
  url: postgres://db/experiments
  max_open_conns: 50
redis:
  enabled: true
  addr: cache:6379
  ttl_seconds: 600
auth:
  tokens:
    - alpha
    - beta
results:
  revenue_property: amount
export:
  enabled: true
  bucket: results-archive
  region: eu-west-1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 600, cfg.Redis.TTLSeconds)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Auth.Tokens)
	assert.Equal(t, "amount", cfg.Results.RevenueProperty)
	assert.True(t, cfg.Export.Enabled)
	assert.Equal(t, "results-archive", cfg.Export.Bucket)
	assert.Equal(t, "reports/", cfg.Export.Prefix)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  url: postgres://db/from-yaml
`)

	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://db/from-env")
	t.Setenv("REDIS_ADDR", "override:6379")
	t.Setenv("API_TOKENS", "one, two,,three")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres://db/from-env", cfg.Database.URL)
	assert.Equal(t, "override:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled, "setting REDIS_ADDR enables the cache")
	assert.Equal(t, []string{"one", "two", "three"}, cfg.Auth.Tokens)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
