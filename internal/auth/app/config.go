package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/botflowhq/botflow/pkg/jwtx"
)

// Config holds everything the auth service reads from the environment.
// The signing key, issuer and audience have no fallbacks: the service
// refuses to start without them.
type Config struct {
	SigningKey []byte   // Required: HS256 key, at least 32 bytes
	Issuer     string   // Required: iss claim for session tokens
	Audience   []string // Required: aud claim, comma-separated in env

	BootstrapToken string // Optional: if set, enables POST /v1/bootstrap

	DatabaseFile string        // Optional: path to SQLite database file (default: ./botflow.db)
	Env          string        // Environment (dev, staging, prod) (default: dev)
	LogLevel     string        // Log level (debug, info, warn, error) (default: info)
	LogFormat    string        // Log format (json, text) (default: json)
	Port         int           // HTTP server port (default: 8080)
	SessionTTL   time.Duration // Session token lifetime (default: 1h)
	RefreshTTL   time.Duration // Refresh token lifetime (default: 168h)
	ResetTTL     time.Duration // Password reset token lifetime (default: 1h)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-token sweep interval (default: 1h)

	// SMTP settings; when Addr is empty, mail is logged instead of sent.
	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	ResetURL     string // Base URL embedded into reset emails
}

var (
	ErrMissingSigningKey = errors.New("AUTH_SIGNING_KEY is required")
	ErrMissingIssuer     = errors.New("AUTH_ISSUER is required")
	ErrMissingAudience   = errors.New("AUTH_AUDIENCE is required")
)

// LoadConfig reads the environment and fails fast on missing or unusable
// mandatory settings.
func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:         os.Getenv("AUTH_ISSUER"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "botflow.db"),
		Env:          getEnvOrDefault("ENV", "dev"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "json"),
		Port:         getEnvIntOrDefault("PORT", 8080),
		SessionTTL:   getEnvDurationOrDefault("AUTH_SESSION_TTL", jwtx.DefaultSessionTokenTTL),
		RefreshTTL:   getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		ResetTTL:     getEnvDurationOrDefault("AUTH_RESET_TTL", time.Hour),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		ResetURL:     getEnvOrDefault("AUTH_RESET_URL", "http://localhost:8080/reset-password"),
	}

	key := os.Getenv("AUTH_SIGNING_KEY")
	if key == "" {
		return Config{}, ErrMissingSigningKey
	}
	if len(key) < jwtx.MinKeyBytes {
		return Config{}, fmt.Errorf("AUTH_SIGNING_KEY must be at least %d bytes", jwtx.MinKeyBytes)
	}
	cfg.SigningKey = []byte(key)

	if cfg.Issuer == "" {
		return Config{}, ErrMissingIssuer
	}

	for _, aud := range strings.Split(os.Getenv("AUTH_AUDIENCE"), ",") {
		if aud = strings.TrimSpace(aud); aud != "" {
			cfg.Audience = append(cfg.Audience, aud)
		}
	}
	if len(cfg.Audience) == 0 {
		return Config{}, ErrMissingAudience
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
