package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/wildwatch-edu/observation-service/internal/utils"
)

// Config is loaded from the environment, with a .env file honored for
// local development.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	// KafkaBrokers switches the event publisher from the in-process
	// channel to Kafka when non-empty.
	KafkaBrokers []string

	// SecretKey derives the encryption key for credentials at rest.
	SecretKey string

	BlobBasePath string
	BlobBaseURL  string

	DefaultProfilePhotoURL string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; containers inject real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		Environment:            getEnv("ENVIRONMENT", "development"),
		LogLevel:               utils.ParseLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		SecretKey:              os.Getenv("SECRET_KEY"),
		BlobBasePath:           getEnv("BLOB_BASE_PATH", "./data/blobs"),
		BlobBaseURL:            getEnv("BLOB_BASE_URL", "http://localhost:8080/blobs"),
		DefaultProfilePhotoURL: getEnv("DEFAULT_PROFILE_PHOTO_URL", "/static/default-profile.png"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
