package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookkeeper.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8888", cfg.Server.Addr)
	assert.Equal(t, "bookkeeper.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTLDuration())
	assert.Empty(t, cfg.Cache.RedisAddr)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
[server]
addr = ":9000"
request_timeout = "5s"
rate_limit = 60

[database]
path = "/var/lib/bookkeeper/ledger.db"

[log]
level = "debug"
format = "json"
`)
	t.Setenv("BOOKKEEPER_SERVER_ADDR", ":9100")
	t.Setenv("BOOKKEEPER_CACHE_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeoutDuration())
	assert.Equal(t, 60, cfg.Server.RateLimit)
	assert.Equal(t, "/var/lib/bookkeeper/ledger.db", cfg.Database.Path)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, "15s", cfg.Server.ReadTimeout)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeFile(t, "[cache]\nttl = \"soon\"\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "cache.ttl")
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := writeFile(t, "[server\naddr = 1")
	_, err := Load(path)
	assert.Error(t, err)
}
