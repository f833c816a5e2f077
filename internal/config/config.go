// Package config loads process configuration from environment variables.
//
// Every field documents the environment variable that populates it and the
// default applied when the variable is unset. Nothing in this package reads
// os.Getenv outside of Load; business logic receives a typed Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the fully-resolved process configuration.
type Config struct {
	// DatabaseURL selects the store driver and connection target. A
	// "sqlite://" or bare filesystem path selects the single-node SQLite
	// store; "postgres://..." selects the multi-reader Postgres store.
	DatabaseURL string // DATABASE_URL, default "sqlite://nyiso.db"

	APIHost        string   // API_HOST, default "127.0.0.1"
	APIPort        int      // API_PORT, default 8000
	AllowedOrigins []string // ALLOWED_ORIGINS, comma-separated, default none (same-origin only)

	WorkerPoolSize int // WORKER_POOL_SIZE, default 4

	RegistryPath string // REGISTRY_PATH, default "registry.txt"

	RedisURL string // REDIS_URL, default "" (cache disabled)

	LogLevel string // LOG_LEVEL, default "info"

	SchedulerEnabled bool // SCHEDULER_ENABLED, default true

	HTTPClientTimeout  time.Duration // HTTP_CLIENT_TIMEOUT_SECONDS, default 30s
	HTTPMaxRetries     int           // HTTP_MAX_RETRIES, default 2
	HTTPMaxConcurrency int           // HTTP_MAX_CONCURRENCY, default 8
}

// Load resolves Config from the process environment, applying defaults for
// every unset variable. It never fails: missing/invalid values fall back to
// documented defaults rather than aborting, since this is runtime
// configuration rather than the boot-time registry load (which does use
// ConfigError for hard failures).
func Load() Config {
	return Config{
		DatabaseURL:        envOr("DATABASE_URL", "sqlite://nyiso.db"),
		APIHost:            envOr("API_HOST", "127.0.0.1"),
		APIPort:            envInt("API_PORT", 8000),
		AllowedOrigins:     envList("ALLOWED_ORIGINS"),
		WorkerPoolSize:     envInt("WORKER_POOL_SIZE", 4),
		RegistryPath:       envOr("REGISTRY_PATH", "registry.txt"),
		RedisURL:           envOr("REDIS_URL", ""),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		SchedulerEnabled:   envBool("SCHEDULER_ENABLED", true),
		HTTPClientTimeout:  time.Duration(envInt("HTTP_CLIENT_TIMEOUT_SECONDS", 30)) * time.Second,
		HTTPMaxRetries:     envInt("HTTP_MAX_RETRIES", 2),
		HTTPMaxConcurrency: envInt("HTTP_MAX_CONCURRENCY", 8),
	}
}

// Addr returns the host:port the HTTP server should bind.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
