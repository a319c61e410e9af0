package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 10*time.Second, cfg.Server.Timeout)
	require.Equal(t, "/metrics", cfg.Server.MetricsPath)
	require.Equal(t, "memory", cfg.Store.Driver)
	require.Equal(t, "contentql", cfg.Tracing.Service)
	require.True(t, cfg.Postgres.AutoMigrate)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("CONTENTQL_ADDR", ":9090")
	t.Setenv("CONTENTQL_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CONTENTQL_TIMEOUT", "3s")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, 3*time.Second, cfg.Server.Timeout)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONTENTQL_LOG_LEVEL=debug\n"), 0o600))
	// godotenv does not override variables already set
	t.Setenv("CONTENTQL_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("CONTENTQL_LOG_LEVEL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, os.Unsetenv("CONTENTQL_LOG_LEVEL"))
}

func TestValidateStoreDriver(t *testing.T) {
	t.Setenv("CONTENTQL_STORE", "postgres")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.EqualError(t, err, "CONTENTQL_POSTGRES_DSN is required for the postgres store")

	t.Setenv("CONTENTQL_STORE", "sqlite")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.EqualError(t, err, `unknown store driver "sqlite"`)
}
