package config

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL string
	Port        string
	Env         string
	LogLevel    string

	// Bearer tokens are issued by the hosted auth provider and signed with this secret.
	JWTSecret string
	// Signs local file download links. Derived from JWTSecret when unset.
	FileSigningSecret string

	EmailProvider string
	ResendAPIKey  string
	BrevoAPIKey   string
	EmailFrom     string
	EmailFromName string

	UploadProvider     string
	UploadDir          string
	PublicBaseURL      string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
	SignedURLTTL       time.Duration

	DailySummaryCron string
	FileCleanupPoll  time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               os.Getenv("PORT"),
		Env:                os.Getenv("ENV"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		FileSigningSecret:  os.Getenv("FILE_SIGNING_SECRET"),
		EmailProvider:      os.Getenv("EMAIL_PROVIDER"),
		ResendAPIKey:       os.Getenv("RESEND_API_KEY"),
		BrevoAPIKey:        os.Getenv("BREVO_API_KEY"),
		EmailFrom:          os.Getenv("EMAIL_FROM"),
		EmailFromName:      os.Getenv("EMAIL_FROM_NAME"),
		UploadProvider:     os.Getenv("UPLOAD_PROVIDER"),
		UploadDir:          os.Getenv("UPLOAD_DIR"),
		PublicBaseURL:      os.Getenv("PUBLIC_BASE_URL"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		SignedURLTTL:       durationEnv("SIGNED_URL_TTL", 60*time.Second),
		DailySummaryCron:   os.Getenv("DAILY_SUMMARY_CRON"),
		FileCleanupPoll:    durationEnv("FILE_CLEANUP_POLL", 30*time.Second),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Turbo Cards"
	}
	if cfg.UploadProvider == "" {
		cfg.UploadProvider = "local"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "eu-central-1"
	}
	if cfg.FileSigningSecret == "" && cfg.JWTSecret != "" {
		cfg.FileSigningSecret = deriveKey(cfg.JWTSecret, "file-signing")
	}
	if cfg.DailySummaryCron == "" {
		// sec min hour dom month dow
		cfg.DailySummaryCron = "0 0 18 * * *"
	}

	return cfg
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// deriveKey returns HMAC-SHA256(secret, label) so one configured secret can
// back several signing keys that never verify each other's tokens.
func deriveKey(secret, label string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(label))
	return hex.EncodeToString(mac.Sum(nil))
}

// durationEnv accepts Go durations ("90s") or plain seconds ("90").
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
	return fallback
}
