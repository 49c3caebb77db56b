// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty means the server runs on in-memory storage,
	// which is only acceptable in development.
	DatabaseURL string `koanf:"database_url"`

	// Redis, used for the group-rankings cache. Optional; empty
	// disables caching.
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication
	JWTSecret string `koanf:"jwt_secret"`

	// Logging
	LogLevel string `koanf:"log_level"`

	// Origins allowed to call the API cross-origin. Empty disables CORS,
	// which is correct when the frontend is served from the same origin.
	CORSOrigins []string `koanf:"cors_origins"`

	// How long an aggregated group ranking may be served from cache.
	RankingsCacheTTL time.Duration `koanf:"rankings_cache_ttl"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required outside development")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidCacheTTL    = errors.New("RANKINGS_CACHE_TTL must be a valid duration")
)

// Default values for non-secret configuration.
const (
	DefaultPort             = 8080
	DefaultEnv              = "development"
	DefaultLogLevel         = "info"
	DefaultRankingsCacheTTL = 30 * time.Second
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	// Try FLATRANK_PORT first, then PORT for backward compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"FLATRANK_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	cacheTTL, ttlErr := getEnvDurationOrDefault("RANKINGS_CACHE_TTL", k.Duration("rankings_cache_ttl"), DefaultRankingsCacheTTL)
	if ttlErr != nil {
		loadErrs = append(loadErrs, ttlErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:             port,
		Env:              getEnvOrDefaultMulti([]string{"FLATRANK_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:      getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:         getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:        getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", k.String("log_level"), DefaultLogLevel),
		CORSOrigins:      getEnvListOrKoanf("CORS_ORIGINS", k, "cors_origins"),
		RankingsCacheTTL: cacheTTL,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// IsDevelopment reports whether the server runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvListOrKoanf returns the environment variable parsed as a comma-separated
// list if set, otherwise the koanf string slice. Blank entries are dropped.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	raw := os.Getenv(envKey)
	if raw == "" {
		return k.Strings(koanfKey)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
// Note: a port value of 0 from a YAML file falls back to the default.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvDurationOrDefault returns the environment variable as a duration if set,
// otherwise the koanf value, or default. Returns an error if the environment
// variable is set but cannot be parsed with time.ParseDuration.
func getEnvDurationOrDefault(envKey string, koanfVal time.Duration, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, ErrInvalidCacheTTL)
		}
		return d, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" && !c.IsDevelopment() {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":               fmt.Sprintf("%d", c.Port),
		"env":                c.Env,
		"database_url":       maskDatabaseURL(c.DatabaseURL),
		"redis_url":          maskDatabaseURL(c.RedisURL),
		"jwt_secret":         maskSecret(c.JWTSecret),
		"log_level":          c.LogLevel,
		"cors_origins":       strings.Join(c.CORSOrigins, ","),
		"rankings_cache_ttl": c.RankingsCacheTTL.String(),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
// Supports postgres://, postgresql:// and redis:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
