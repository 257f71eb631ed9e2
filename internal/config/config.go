// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"service-orchestrator/internal/common/errors"
)

// Cache backends.
const (
	CacheBackendLocal = "local"
	CacheBackendRedis = "redis"
)

// Config holds the runtime configuration of the orchestrator server.
type Config struct {
	Port         string
	LogLevel     string
	ServicesFile string

	HTTPTimeout time.Duration

	CacheBackend    string
	CacheDefaultTTL time.Duration
	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	RedisKeyPrefix  string
}

// Load reads configuration from environment variables, applying
// defaults for everything optional.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		ServicesFile:    getEnv("SERVICES_FILE", "services.yaml"),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		CacheBackend:    getEnv("CACHE_BACKEND", CacheBackendLocal),
		CacheDefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
		RedisAddress:    getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:  getEnv("REDIS_KEY_PREFIX", "orchestrator:"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.ConfigError("PORT must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.ConfigError(fmt.Sprintf("PORT must be numeric, got %q", c.Port))
	}
	if c.ServicesFile == "" {
		return errors.ConfigError("SERVICES_FILE must not be empty")
	}

	switch c.CacheBackend {
	case CacheBackendLocal, CacheBackendRedis:
	default:
		return errors.ConfigError(fmt.Sprintf("CACHE_BACKEND must be local or redis, got %q", c.CacheBackend))
	}

	if c.CacheBackend == CacheBackendRedis && c.RedisAddress == "" {
		return errors.ConfigError("REDIS_ADDRESS is required for the redis cache backend")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
