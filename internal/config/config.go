package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gochurn/internal/errors"
)

// Store kinds for the model artifact repository
const (
	StoreFilesystem = "fs"
	StorePostgres   = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Metrics   MetricsConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Inference InferenceConfig
	LogLevel  string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	GinMode      string
	FrontendURLs []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MetricsConfig holds the ops listener settings; an empty port disables it
type MetricsConfig struct {
	Port string
}

// StoreConfig selects where model artifacts live
type StoreConfig struct {
	Kind    string
	Dir     string
	ModelID string // optional; empty selects the latest (fs) or active (postgres) model
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// InferenceConfig holds prediction settings
type InferenceConfig struct {
	Horizons         []int
	BatchConcurrency int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Metrics:  MetricsConfig{Port: getEnvOrDefault("METRICS_PORT", "9090")},
		Store:    *loadStoreConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	inference, err := loadInferenceConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load inference configuration")
	}
	config.Inference = *inference

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8000"),
		GinMode:      getEnvOrDefault("GIN_MODE", "release"),
		FrontendURLs: splitList(getEnvOrDefault("FRONTEND_URL", "http://localhost:3000")),
		ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", 30*time.Second),
	}
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Kind:    strings.ToLower(getEnvOrDefault("MODEL_STORE", StoreFilesystem)),
		Dir:     getEnvOrDefault("MODEL_DIR", "./models"),
		ModelID: strings.TrimSpace(os.Getenv("MODEL_ID")),
	}
}

func loadInferenceConfig() (*InferenceConfig, error) {
	horizons, err := ParseHorizons(getEnvOrDefault("HORIZONS", "30,90,180"))
	if err != nil {
		return nil, err
	}
	return &InferenceConfig{
		Horizons:         horizons,
		BatchConcurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 8),
	}, nil
}

// ParseHorizons parses a comma-separated list of positive integer tenure horizons
func ParseHorizons(s string) ([]int, error) {
	var horizons []int
	for _, part := range splitList(s) {
		h, err := strconv.Atoi(part)
		if err != nil || h <= 0 {
			return nil, errors.ConfigInvalid(fmt.Sprintf("invalid horizon %q", part))
		}
		horizons = append(horizons, h)
	}
	if len(horizons) == 0 {
		return nil, errors.ConfigInvalid("at least one horizon is required")
	}
	return horizons, nil
}

func validateConfig(config *Config) error {
	switch config.Store.Kind {
	case StoreFilesystem:
		if config.Store.Dir == "" {
			return errors.ConfigInvalid("MODEL_DIR is required for the filesystem store")
		}
	case StorePostgres:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when MODEL_STORE=postgres")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown MODEL_STORE %q", config.Store.Kind))
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Inference.BatchConcurrency <= 0 {
		return errors.ConfigInvalid("BATCH_CONCURRENCY must be positive")
	}
	return nil
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

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
