package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Profile cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds the application configuration
type Config struct {
	KratosURL            string        // Kratos Frontend API URL
	Port                 string        // Service port
	CacheTTL             time.Duration // Identity cache TTL (absolute)
	ProfileCacheTTL      time.Duration // Profile cache sliding TTL
	ProfileCacheCapacity int           // Max in-memory profile entries
	ProfileCacheBackend  string        // memory or redis
	RedisURL             string        // Required for the redis backend
	SessionIdleTTL       time.Duration // Session store sliding TTL
	AuthSharedSecret     string        // Shared secret for internal endpoints
	BackendTokenSecret   string        // Secret for signing backend JWT tokens
	BackendTokenIssuer   string        // JWT issuer claim
	BackendTokenAudience string        // JWT audience claim
	BackendTokenTTL      time.Duration // JWT token TTL
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		KratosURL:            getEnv("KRATOS_URL", "http://kratos:4433"),
		Port:                 getEnv("PORT", "8888"),
		ProfileCacheBackend:  strings.ToLower(getEnv("PROFILE_CACHE_BACKEND", BackendMemory)),
		RedisURL:             getEnv("REDIS_URL", ""),
		AuthSharedSecret:     getEnv("AUTH_SHARED_SECRET", ""),
		BackendTokenSecret:   getEnv("BACKEND_TOKEN_SECRET", ""),
		BackendTokenIssuer:   getEnv("BACKEND_TOKEN_ISSUER", "profile-hub"),
		BackendTokenAudience: getEnv("BACKEND_TOKEN_AUDIENCE", "alt-backend"),
	}

	var errs []error
	config.CacheTTL = parseDuration("CACHE_TTL", 5*time.Minute, &errs)
	config.ProfileCacheTTL = parseDuration("PROFILE_CACHE_TTL", 600*time.Second, &errs)
	config.SessionIdleTTL = parseDuration("SESSION_IDLE_TTL", 30*time.Minute, &errs)
	config.BackendTokenTTL = parseDuration("BACKEND_TOKEN_TTL", 5*time.Minute, &errs)
	config.ProfileCacheCapacity = parseInt("PROFILE_CACHE_CAPACITY", 10000, &errs)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.KratosURL == "" {
		return fmt.Errorf("KRATOS_URL cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"CACHE_TTL":         c.CacheTTL,
		"PROFILE_CACHE_TTL": c.ProfileCacheTTL,
		"SESSION_IDLE_TTL":  c.SessionIdleTTL,
		"BACKEND_TOKEN_TTL": c.BackendTokenTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.ProfileCacheCapacity <= 0 {
		return fmt.Errorf("PROFILE_CACHE_CAPACITY must be positive")
	}

	switch c.ProfileCacheBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when PROFILE_CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown PROFILE_CACHE_BACKEND %q", c.ProfileCacheBackend)
	}
	return nil
}

func parseDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s format: %w", key, err))
		return fallback
	}
	return d
}

func parseInt(key string, fallback int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

// getEnv retrieves an environment variable or returns a fallback value.
// KEY_FILE, when set and readable, takes precedence over KEY.
func getEnv(key, fallback string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
