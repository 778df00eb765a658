package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 5*time.Minute, cfg.AuthzCacheTTL)
	assert.True(t, cfg.AuthzValidateContentTypes)
	assert.False(t, cfg.AuthzIncludeResourceDefaults)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTHZ_CACHE_TTL", "0s")
	t.Setenv("AUTHZ_VALIDATE_CONTENT_TYPES", "false")
	t.Setenv("AUTHZ_INCLUDE_RESOURCE_DEFAULTS", "true")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "admin@gameguild.gg")
	t.Setenv("BOOTSTRAP_CONTENT_TYPES", "Project,program,TestingSession")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Zero(t, cfg.AuthzCacheTTL)
	assert.Equal(t, []string{"Project", "program", "TestingSession"}, cfg.BootstrapContentTypes)

	rc := cfg.ResolverConfig()
	assert.False(t, rc.ValidateContentTypes)
	assert.True(t, rc.IncludeResourceDefaults)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Run("unknown content type", func(t *testing.T) {
		t.Setenv("BOOTSTRAP_CONTENT_TYPES", "Project,Projcet")
		_, err := LoadConfig()
		require.ErrorIs(t, err, permission.ErrUnknownContentType)
	})
	t.Run("negative ttl", func(t *testing.T) {
		t.Setenv("AUTHZ_CACHE_TTL", "-1s")
		_, err := LoadConfig()
		require.Error(t, err)
	})
	t.Run("cron without email", func(t *testing.T) {
		t.Setenv("BOOTSTRAP_CRON", "@hourly")
		_, err := LoadConfig()
		require.Error(t, err)
	})
	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("AUTHZ_CACHE_TTL", "soon")
		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GAMEGUILD_DOTENV_PROBE=from-file\nAPP_ADDR=:9999\n"), 0o600))
	t.Setenv("APP_ADDR", ":7070")
	t.Cleanup(func() { _ = os.Unsetenv("GAMEGUILD_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("GAMEGUILD_DOTENV_PROBE"))
	assert.Equal(t, ":7070", os.Getenv("APP_ADDR"))
}

func TestTestModeDetection(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestRedisSettingsAreShared(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_PASSWORD", "pw")
	t.Setenv("REDIS_DB", "2")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	opts := cfg.RedisOptions()
	assert.Equal(t, "redis:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	queue := cfg.AsynqRedis()
	assert.Equal(t, opts.Addr, queue.Addr)
	assert.Equal(t, opts.Password, queue.Password)
	assert.Equal(t, opts.DB, queue.DB)
}
