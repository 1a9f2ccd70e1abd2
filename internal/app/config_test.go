package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.False(t, cfg.Metrics.Enabled)
}

func TestLoadConfigLayersYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  request_timeout: 5s
  cors_origins: ["https://a.example"]
auth:
  jwt_secret_key: from-yaml
  access_token_ttl: 15m
database:
  driver: sqlite
  path: ":memory:"
storage:
  mode: gcs_emulator
  emulator_host: http://fake-gcs:4443
  thumbnail_bucket: thumbs
`), 0o600))

	t.Setenv("JWT_SECRET_KEY", "from-env")
	t.Setenv("CORS_ORIGINS", "https://b.example, https://c.example")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, "from-env", cfg.Auth.JWTSecretKey)
	require.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, gcp.ObjectStorageModeGCSEmulator, cfg.Storage.Mode)
	require.Equal(t, "thumbs", cfg.Storage.ThumbnailBucket)
}

func TestLoadConfigRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := LoadConfig("")
	require.ErrorContains(t, err, "jwt_secret_key")

	t.Setenv("JWT_SECRET_KEY", "a-real-secret")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
