package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
store:
  driver: redis
  redis:
    addr: "redis:6379"
    prefix: ledger
auth:
  token_ttl: 1h
log:
  level: debug
  format: json
`), 0o600))

	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "ledger", cfg.Store.Redis.Prefix)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestPostgresFromEnv(t *testing.T) {
	t.Setenv("LEDGER_STORE", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "ledger")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "governance")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://ledger:secret@db:5433/governance?sslmode=disable", cfg.Store.Postgres.ConnString())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: `unknown store driver "sqlite"`},
		{name: "postgres without host", mutate: func(c *Config) { c.Store.Driver = StorePostgres }, wantErr: "postgres store requires"},
		{name: "redis without addr", mutate: func(c *Config) {
			c.Store.Driver = StoreRedis
			c.Store.Redis.Addr = ""
		}, wantErr: "redis store requires"},
		{name: "empty http addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, wantErr: "http address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestInvalidEnv(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load("")
	require.ErrorContains(t, err, "invalid REDIS_DB")

	t.Setenv("REDIS_DB", "")
	t.Setenv("TOKEN_TTL", "soon")
	_, err = Load("")
	require.ErrorContains(t, err, "invalid TOKEN_TTL")
}
