// Package config loads application configuration from environment variables
// and optional seed files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/docflow/pkg/access"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Admin   access.AdminConfig

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// GroupSeedPath points at a YAML file of groups installed at startup
	// and re-applied on reset. Empty disables seeding.
	GroupSeedPath string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	// Type is "memory", "sqlite" or "postgres".
	Type string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// PostgresURL is the connection string for the postgres backend.
	PostgresURL string

	// Group cache settings.
	GroupCacheSize int
	GroupCacheTTL  time.Duration

	// RedisURL enables the shared Redis group cache when set.
	RedisURL string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("DOCFLOW_HOST", "0.0.0.0"),
			Port:            getEnv("DOCFLOW_PORT", "8080"),
			ReadTimeout:     getEnvDuration("DOCFLOW_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("DOCFLOW_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("DOCFLOW_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("DOCFLOW_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Type:           getEnv("DOCFLOW_STORAGE", "memory"),
			SQLitePath:     getEnv("DOCFLOW_SQLITE_PATH", "docflow.db"),
			PostgresURL:    getEnv("DOCFLOW_POSTGRES_URL", ""),
			GroupCacheSize: getEnvInt("DOCFLOW_GROUP_CACHE_SIZE", 256),
			GroupCacheTTL:  getEnvDuration("DOCFLOW_GROUP_CACHE_TTL", 5*time.Minute),
			RedisURL:       getEnv("DOCFLOW_REDIS_URL", ""),
		},
		Admin: access.AdminConfig{
			Emails: getEnvList("DOCFLOW_ADMIN_EMAILS"),
			Role:   getEnv("DOCFLOW_ADMIN_ROLE", "admin"),
			Groups: getEnvList("DOCFLOW_ADMIN_GROUPS"),
		},
		LogLevel:      getEnv("DOCFLOW_LOG_LEVEL", "info"),
		GroupSeedPath: getEnv("DOCFLOW_GROUP_SEED", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres storage requires DOCFLOW_POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	return nil
}

// getEnv returns the environment value or a default
func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvInt returns an integer environment value or a default
func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment value or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment value.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
