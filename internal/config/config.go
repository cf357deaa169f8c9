package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"edgepick/internal/urlutil"
)

// DefaultEndpoints are the tunnel endpoints probed when ENDPOINTS is unset.
var DefaultEndpoints = []string{
	"https://overbrutal-semiexclusively-wilhemina.ngrok-free.dev",
	"https://illaudable-roseanna-unsobering.ngrok-free.dev",
	"https://dentiled-gennie-stichometrical.ngrok-free.dev",
}

// Config holds the application's configuration values.
type Config struct {
	Endpoints           []string
	ProbeTimeout        time.Duration
	ProbeMaxConcurrency int
	OpaquePolicy        string
	BypassHeader        string
	SessionTTL          time.Duration

	HTTPPort      string
	ShutdownGrace time.Duration
	Environment   string
	LogLevel      string

	DatabaseDriver string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
}

var (
	validPolicies = map[string]bool{"unhealthy": true, "healthy": true}
	validDrivers  = map[string]bool{"none": true, "sqlite": true, "postgres": true, "mysql": true, "redis": true}
)

// Load loads configuration from environment variables with sane defaults.
// It fails when an endpoint is not an absolute http(s) URL or when a policy
// or storage driver name is unknown.
func Load() (*Config, error) {
	cfg := &Config{
		ProbeTimeout:        getEnvDuration("PROBE_TIMEOUT", 15*time.Second),
		ProbeMaxConcurrency: getEnvInt("PROBE_MAX_CONCURRENCY", 0),
		OpaquePolicy:        strings.ToLower(getEnv("OPAQUE_POLICY", "unhealthy")),
		BypassHeader:        getEnv("BYPASS_HEADER", "ngrok-skip-browser-warning"),
		SessionTTL:          getEnvDuration("SESSION_TTL", 10*time.Minute),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		ShutdownGrace:       getEnvDuration("SHUTDOWN_GRACE", 10*time.Second),
		Environment:         getEnv("ENVIRONMENT", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:      strings.ToLower(getEnv("DATABASE_DRIVER", "none")),
		DatabaseURL:         getEnv("DATABASE_URL", "edgepick.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
	}

	raw := DefaultEndpoints
	if v, ok := os.LookupEnv("ENDPOINTS"); ok {
		raw = splitList(v)
	}
	endpoints, err := canonicalEndpoints(raw)
	if err != nil {
		return nil, err
	}
	cfg.Endpoints = endpoints

	if !validPolicies[cfg.OpaquePolicy] {
		return nil, fmt.Errorf("invalid OPAQUE_POLICY %q: want unhealthy or healthy", cfg.OpaquePolicy)
	}
	if !validDrivers[cfg.DatabaseDriver] {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.ProbeTimeout <= 0 {
		return nil, fmt.Errorf("PROBE_TIMEOUT must be positive, got %s", cfg.ProbeTimeout)
	}
	return cfg, nil
}

// canonicalEndpoints canonicalizes every endpoint and drops duplicates,
// keeping the first occurrence so configured order is preserved.
func canonicalEndpoints(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		c, err := urlutil.Canonicalize(r)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint: %w", err)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper function to get an environment variable or return a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer.
func getEnvInt(key string, fallback int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// Helper function to get an environment variable as a time.Duration.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return fallback
}
