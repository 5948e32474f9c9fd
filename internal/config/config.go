// Package config provides environment-driven configuration for the service.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings. Values come from environment variables
// with sensible defaults; GEMINI_API_KEY is the only required one for
// analysis runs.
type Config struct {
	// Server
	Port string // HTTP listen port

	// Cache
	RedisHost string
	RedisPort string
	CacheTTL  time.Duration

	// Fetching
	FetchConcurrency int           // Max concurrent course fetches
	FetchDeadline    time.Duration // Global deadline for one fetch batch
	PageTimeout      time.Duration // Per-page fetch timeout
	UseBrowser       bool          // Use headless browser for SPA sites

	// LLM
	APIKey string // Gemini API key

	// Behavior
	Verbose bool // Print detailed debug information
}

// FromEnv builds a Config from environment variables, applying defaults
// for anything unset.
func FromEnv() *Config {
	return &Config{
		Port:             envString("PORT", "8080"),
		RedisHost:        envString("REDIS_HOST", "localhost"),
		RedisPort:        envString("REDIS_PORT", "6379"),
		CacheTTL:         time.Duration(envInt("CACHE_TTL_HOURS", 24)) * time.Hour,
		FetchConcurrency: envInt("FETCH_CONCURRENCY", 3),
		FetchDeadline:    time.Duration(envInt("FETCH_DEADLINE_SECONDS", 120)) * time.Second,
		PageTimeout:      time.Duration(envInt("FETCH_PAGE_TIMEOUT_SECONDS", 30)) * time.Second,
		UseBrowser:       envBool("USE_BROWSER", true),
		APIKey:           os.Getenv("GEMINI_API_KEY"),
		Verbose:          envBool("VERBOSE", false),
	}
}

// RedisAddr returns the host:port pair for the Redis connection.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, c.RedisPort)
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("config error: PORT must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("config error: PORT must be numeric, got %q", c.Port)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("config error: FETCH_CONCURRENCY must be at least 1, got %d", c.FetchConcurrency)
	}
	if c.FetchDeadline <= 0 {
		return fmt.Errorf("config error: FETCH_DEADLINE_SECONDS must be positive")
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("config error: FETCH_PAGE_TIMEOUT_SECONDS must be positive")
	}
	if c.PageTimeout > c.FetchDeadline {
		return fmt.Errorf("config error: page timeout (%s) exceeds fetch deadline (%s)", c.PageTimeout, c.FetchDeadline)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("config error: CACHE_TTL_HOURS must be positive")
	}
	return nil
}

// RequireAPIKey checks that a Gemini key is configured. Serve and analyze
// commands need it; cache commands do not.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is not set")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
