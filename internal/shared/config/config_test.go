package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("UPLOAD_PROVIDER", "")
	t.Setenv("SIGNED_URL_TTL", "")
	t.Setenv("DAILY_SUMMARY_CRON", "")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "local", cfg.UploadProvider)
	assert.Equal(t, 60*time.Second, cfg.SignedURLTTL)
	assert.Equal(t, "0 0 18 * * *", cfg.DailySummaryCron)
	assert.False(t, cfg.IsProduction())
}

func TestDurationEnv(t *testing.T) {
	t.Setenv("SIGNED_URL_TTL", "120")
	assert.Equal(t, 120*time.Second, durationEnv("SIGNED_URL_TTL", time.Minute))

	t.Setenv("SIGNED_URL_TTL", "5m")
	assert.Equal(t, 5*time.Minute, durationEnv("SIGNED_URL_TTL", time.Minute))

	t.Setenv("SIGNED_URL_TTL", "soon")
	assert.Equal(t, time.Minute, durationEnv("SIGNED_URL_TTL", time.Minute))
}

func TestFileSigningSecretIsSeparateFromJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "auth-secret")
	t.Setenv("FILE_SIGNING_SECRET", "")

	cfg := LoadConfig()

	assert.NotEmpty(t, cfg.FileSigningSecret)
	assert.NotEqual(t, cfg.JWTSecret, cfg.FileSigningSecret)
	assert.Equal(t, deriveKey("auth-secret", "file-signing"), cfg.FileSigningSecret)

	t.Setenv("FILE_SIGNING_SECRET", "files-only")
	assert.Equal(t, "files-only", LoadConfig().FileSigningSecret)
}
