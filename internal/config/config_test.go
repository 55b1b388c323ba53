package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "workers", cfg.Storage.SignatureBucket)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, 15*time.Second, cfg.RemoteTimeout)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  addr: ":7070"
database:
  host: db.internal
  database: controlplagas
storage:
  url: https://example.supabase.co
  signature_bucket: sellos
draft_db_path: /tmp/drafts.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("DB_HOST", "override.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, "controlplagas", cfg.Database.Database)
	assert.Equal(t, "sellos", cfg.Storage.SignatureBucket)
	assert.Equal(t, "/tmp/drafts.db", cfg.DraftDBPath)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("SUPABASE_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", c.GetDSN())
}
