// Package config loads speakerdir settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration values.
type Config struct {
	// Gateway
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`

	// Token storage
	TokenBackend  string `validate:"oneof=file redis memory"`
	TokenFile     string
	RedisAddr     string `validate:"required_if=TokenBackend redis"`
	RedisPassword string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		BaseURL: getEnv("SPEAKERDIR_BASE_URL", "http://localhost:8000"),
		Timeout: parseDuration(getEnv("SPEAKERDIR_TIMEOUT", "30s"), 30*time.Second),

		TokenBackend:  strings.ToLower(getEnv("SPEAKERDIR_TOKEN_BACKEND", "file")),
		TokenFile:     getEnv("SPEAKERDIR_TOKEN_FILE", ""),
		RedisAddr:     getEnv("SPEAKERDIR_REDIS_ADDR", ""),
		RedisPassword: getEnv("SPEAKERDIR_REDIS_PASSWORD", ""),

		LogFile:  getEnv("SPEAKERDIR_LOG_FILE", filepath.Join(os.TempDir(), "speakerdir.log")),
		LogLevel: parseLogLevel(getEnv("SPEAKERDIR_LOG_LEVEL", "WARN")),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field in one error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
