package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, time.Minute, cfg.Dashboard.CacheTTL)
	assert.Zero(t, cfg.Dashboard.UpcomingDriveLimit)
	assert.Equal(t, 4, cfg.Import.Concurrency)
	assert.EqualValues(t, 5*1024*1024, cfg.Import.MaxFileSize)
	assert.True(t, cfg.Reports.PDFEnabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("DASHBOARD_CACHE_TTL", "45s")
	t.Setenv("IMPORT_CONCURRENCY", "8")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, ,https://admin.school.test")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 8, cfg.Import.Concurrency)
	assert.Equal(t, []string{"http://localhost:3000", "https://admin.school.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
}
