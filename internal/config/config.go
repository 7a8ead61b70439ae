// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Storage drivers understood by StorageDriver.
const (
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port           string
	AppEnv         string
	LogLevel       string
	JWTSecret      string // optional; when set, upload and delete require a bearer token
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Object storage (AWS S3 or any S3-compatible endpoint)
	StorageDriver       string
	StorageEndpoint     string
	StorageRegion       string
	StorageAccessKey    string
	StorageSecretKey    string
	StorageBucket       string
	StorageUseSSL       bool
	StoragePublicBase   string // optional browser-facing base URL, e.g. a CDN
	StorageNamespace    string // key prefix every managed object lives under
	StorageCreateBucket bool

	// Uploads
	StagingDir     string
	MaxUploadBytes int64
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, reading from environment")
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "2147483648"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse MAX_UPLOAD_BYTES: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("parse REQUEST_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RequestTimeout: timeout,

		StorageDriver:       strings.ToLower(getEnv("STORAGE_DRIVER", DriverS3)),
		StorageEndpoint:     getEnv("STORAGE_ENDPOINT", "s3.amazonaws.com"),
		StorageRegion:       getEnv("STORAGE_REGION", "ap-northeast-2"),
		StorageAccessKey:    getEnv("STORAGE_ACCESS_KEY", os.Getenv("ID")),
		StorageSecretKey:    getEnv("STORAGE_SECRET_KEY", os.Getenv("SECRET")),
		StorageBucket:       os.Getenv("STORAGE_BUCKET"),
		StorageUseSSL:       getEnv("STORAGE_USE_SSL", "true") == "true",
		StoragePublicBase:   os.Getenv("STORAGE_PUBLIC_BASE"),
		StorageNamespace:    strings.Trim(getEnv("STORAGE_NAMESPACE", "uploadedVideos"), "/"),
		StorageCreateBucket: getEnv("STORAGE_CREATE_BUCKET", "false") == "true",

		StagingDir:     getEnv("STAGING_DIR", os.TempDir()),
		MaxUploadBytes: maxUpload,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem that would stop the
// service from talking to its store.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverS3:
		if c.StorageBucket == "" {
			return errors.New("STORAGE_BUCKET is required")
		}
		if c.StorageRegion == "" {
			return errors.New("STORAGE_REGION is required")
		}
		if c.StorageEndpoint == "" {
			return errors.New("STORAGE_ENDPOINT is required")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageNamespace == "" {
		return errors.New("STORAGE_NAMESPACE must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
