// Package config provides configuration management for the sentinel.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Analysis AnalysisConfig
	Intel    IntelConfig
	Feeds    FeedsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// EngineConfig holds scoring-engine configuration.
type EngineConfig struct {
	QueueSize   int
	HistorySize int
}

// AnalysisConfig holds deep-analysis scheduler configuration.
type AnalysisConfig struct {
	Endpoint         string
	APIKey           string
	CallTimeout      time.Duration
	DispatchInterval time.Duration
	CircuitCooldown  time.Duration
}

// IntelConfig holds signature-intelligence configuration. Redis is optional;
// without it the built-in seed and marker lists are used.
type IntelConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RefreshInterval time.Duration
	ExtraSeeds      []string
	ExtraMarkers    []string
}

// FeedsConfig selects and tunes the ingestion collaborators.
type FeedsConfig struct {
	LiveEnabled       bool
	LiveURL           string
	SyntheticEnabled  bool
	SyntheticInterval time.Duration
	SyntheticSeed     int64
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from a .env file (optional) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Engine: EngineConfig{
			QueueSize:   getEnvAsInt("ENGINE_QUEUE_SIZE", 4096),
			HistorySize: getEnvAsInt("ENGINE_HISTORY_SIZE", 1000),
		},
		Analysis: AnalysisConfig{
			Endpoint:         getEnv("ANALYSIS_ENDPOINT", ""),
			APIKey:           getEnv("ANALYSIS_API_KEY", ""),
			CallTimeout:      getEnvAsDuration("ANALYSIS_CALL_TIMEOUT", 45*time.Second),
			DispatchInterval: getEnvAsDuration("ANALYSIS_DISPATCH_INTERVAL", 2*time.Second),
			CircuitCooldown:  getEnvAsDuration("ANALYSIS_CIRCUIT_COOLDOWN", 5*time.Minute),
		},
		Intel: IntelConfig{
			RedisAddr:       getEnv("INTEL_REDIS_ADDR", ""),
			RedisPassword:   getEnv("INTEL_REDIS_PASSWORD", ""),
			RedisDB:         getEnvAsInt("INTEL_REDIS_DB", 0),
			RefreshInterval: getEnvAsDuration("INTEL_REFRESH_INTERVAL", 5*time.Minute),
			ExtraSeeds:      getEnvAsList("INTEL_EXTRA_SEEDS"),
			ExtraMarkers:    getEnvAsList("INTEL_EXTRA_MARKERS"),
		},
		Feeds: FeedsConfig{
			LiveEnabled:       getEnvAsBool("FEED_LIVE_ENABLED", false),
			LiveURL:           getEnv("FEED_LIVE_URL", ""),
			SyntheticEnabled:  getEnvAsBool("FEED_SYNTHETIC_ENABLED", true),
			SyntheticInterval: getEnvAsDuration("FEED_SYNTHETIC_INTERVAL", 2500*time.Millisecond),
			SyntheticSeed:     int64(getEnvAsInt("FEED_SYNTHETIC_SEED", 0)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated environment variable.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
