// Package config loads the application configuration from environment
// variables. Entry points call godotenv.Load first so a local .env file
// can supply these in development.
package config

import (
	"os"
	"strconv"
	"time"

	"eyedash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Upload   UploadConfig
	Database DatabaseConfig
	Session  SessionConfig
}

// ServerConfig holds dashboard web server settings
type ServerConfig struct {
	Port string
}

// DataConfig holds the spreadsheet data directory settings
type DataConfig struct {
	Dir string
}

// UploadConfig holds the upload service settings
type UploadConfig struct {
	Dir      string
	Token    string
	MaxBytes int64
	Port     string
}

// DatabaseConfig holds the optional session-store database settings
type DatabaseConfig struct {
	URL string // empty means in-memory session storage
}

// SessionConfig holds browser session settings
type SessionConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Data: DataConfig{
			Dir: getEnv("DATA_DIR", "./data"),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "./data"),
			Token:    os.Getenv("UPLOAD_TOKEN"),
			MaxBytes: int64(getEnvFloat("MAX_CONTENT_LENGTH_MB", 50) * 1024 * 1024),
			Port:     getEnv("UPLOAD_PORT", "5000"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Session: SessionConfig{
			TTL: getEnvDuration("SESSION_TTL", 12*time.Hour),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadUpload validates the subset the upload service needs, including the
// token requirement that Load leaves optional for the dashboard process.
func LoadUpload() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if len(config.Upload.Token) != 32 {
		return nil, errors.ConfigInvalid("UPLOAD_TOKEN must be exactly 32 characters")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if c.Data.Dir == "" {
		return errors.ConfigInvalid("DATA_DIR must not be empty")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid("MAX_CONTENT_LENGTH_MB must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
