package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Cache     CacheConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless browser instances.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxInstances is the instance pool capacity (max concurrent browsers).
	MaxInstances int // default: 3

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// BlockedResourceTypes lists resource types never loaded during renders.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig controls the fetch-and-extract behavior.
type ScraperConfig struct {
	// SourceURLTemplate is the canonical dividend page, with %s replaced
	// by the lower-cased ticker.
	SourceURLTemplate string // default: "https://stockanalysis.com/stocks/%s/dividend/"

	// TableSelector is the content marker the scraper waits for.
	TableSelector string // default: "table"

	// RenderTimeout is the total budget for one navigate-and-extract pass.
	RenderTimeout time.Duration // default: 30s

	// NavRetries is the maximum number of navigation attempts.
	NavRetries int // default: 3

	// NavBackoffBase is multiplied by the attempt number between retries.
	NavBackoffBase time.Duration // default: 1s
}

// CacheConfig controls the dividend result cache.
type CacheConfig struct {
	// TTL is how long a fetched result stays valid.
	TTL time.Duration // default: 60s

	// SweepInterval is how often expired entries are evicted.
	SweepInterval time.Duration // default: 5m
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys; empty means open access.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// Window is the rate-limit accounting window.
	Window time.Duration // default: 15m

	// MaxRequests is the number of requests allowed per window.
	MaxRequests int // default: 100
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("DIVFETCH_HOST", "0.0.0.0"),
			Port: envIntOr("DIVFETCH_PORT", 8080),
			Mode: envOr("DIVFETCH_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("DIVFETCH_HEADLESS", true),
			MaxInstances: envIntOr("DIVFETCH_MAX_BROWSERS", 3),
			NoSandbox:    envBoolOr("DIVFETCH_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("DIVFETCH_BROWSER_BIN"),
			BlockedResourceTypes: envSliceOr("DIVFETCH_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			SourceURLTemplate: envOr("DIVFETCH_SOURCE_URL", "https://stockanalysis.com/stocks/%s/dividend/"),
			TableSelector:     envOr("DIVFETCH_TABLE_SELECTOR", "table"),
			RenderTimeout:     envDurationOr("DIVFETCH_RENDER_TIMEOUT", 30*time.Second),
			NavRetries:        envIntOr("DIVFETCH_NAV_RETRIES", 3),
			NavBackoffBase:    envDurationOr("DIVFETCH_NAV_BACKOFF", time.Second),
		},
		Cache: CacheConfig{
			TTL:           envDurationOr("DIVFETCH_CACHE_TTL", 60*time.Second),
			SweepInterval: envDurationOr("DIVFETCH_CACHE_SWEEP", 5*time.Minute),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("DIVFETCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			Window:      envDurationOr("DIVFETCH_RATE_WINDOW", 15*time.Minute),
			MaxRequests: envIntOr("DIVFETCH_RATE_MAX", 100),
		},
		Log: LogConfig{
			Level:  envOr("DIVFETCH_LOG_LEVEL", "info"),
			Format: envOr("DIVFETCH_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
