// Package config loads livetl settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbitsmeet/livetl"
	"github.com/orbitsmeet/livetl/cache"
	"github.com/orbitsmeet/livetl/store/redisstore"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Store names.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// Provider
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64

	// Service
	Concurrency       int
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	RequestsPerMinute int // 0 disables client-side rate limiting
	RateBurst         int
	DefaultLanguage   string

	// Cache and persistence
	CacheMaxSize int
	CacheTTL     time.Duration
	StorageKey   string
	Store        string
	RedisURL     string
	RedisPrefix  string
	BadgerDir    string
	SQLitePath   string

	LogLevel string // debug, info, warn, error
}

// Load reads LIVETL_* environment variables, falling back to defaults.
func Load() *Config {
	defaults := livetl.DefaultRetryConfig()

	cfg := &Config{
		Provider:    strings.ToLower(GetEnv(ProviderGemini, "LIVETL_PROVIDER")),
		Model:       GetEnv("", "LIVETL_MODEL"),
		BaseURL:     GetEnv("", "LIVETL_BASE_URL"),
		Temperature: GetEnvAsFloat("LIVETL_TEMPERATURE", 0.3),

		Concurrency:       GetEnvAsInt("LIVETL_CONCURRENCY", livetl.DefaultConcurrency),
		MaxRetries:        GetEnvAsInt("LIVETL_MAX_RETRIES", defaults.MaxRetries),
		RetryBaseDelay:    GetEnvAsDuration("LIVETL_RETRY_BASE_DELAY", defaults.BaseDelay),
		RetryMaxDelay:     GetEnvAsDuration("LIVETL_RETRY_MAX_DELAY", defaults.MaxDelay),
		RequestsPerMinute: GetEnvAsInt("LIVETL_REQUESTS_PER_MINUTE", 0),
		RateBurst:         GetEnvAsInt("LIVETL_RATE_BURST", 0),
		DefaultLanguage:   strings.ToLower(GetEnv(livetl.DefaultLanguage, "LIVETL_DEFAULT_LANGUAGE")),

		CacheMaxSize: GetEnvAsInt("LIVETL_CACHE_MAX_SIZE", cache.DefaultMaxSize),
		CacheTTL:     GetEnvAsDuration("LIVETL_CACHE_TTL", cache.DefaultTTL),
		StorageKey:   GetEnv(cache.DefaultStorageKey, "LIVETL_STORAGE_KEY"),
		Store:        strings.ToLower(GetEnv(StoreBadger, "LIVETL_STORE")),
		RedisURL:     GetEnv("redis://localhost:6379/0", "LIVETL_REDIS_URL", "REDIS_URL"),
		RedisPrefix:  GetEnv(redisstore.DefaultKeyPrefix, "LIVETL_REDIS_PREFIX"),
		BadgerDir:    GetEnv(".livetl/badger", "LIVETL_BADGER_DIR"),
		SQLitePath:   GetEnv(".livetl/cache.db", "LIVETL_SQLITE_PATH"),

		LogLevel: strings.ToLower(GetEnv("info", "LIVETL_LOG_LEVEL")),
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		cfg.APIKey = GetEnv("", "LIVETL_API_KEY", "OPENAI_API_KEY")
	default:
		cfg.APIKey = GetEnv("", "LIVETL_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	}

	return cfg
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if err := c.ValidateProvider(); err != nil {
		return err
	}
	return c.ValidateCache()
}

// ValidateProvider checks the provider and service settings.
func (c *Config) ValidateProvider() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("no API key for provider %q (set LIVETL_API_KEY)", c.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", c.MaxRetries)
	}
	return nil
}

// ValidateCache checks the cache and persistence settings.
func (c *Config) ValidateCache() error {
	switch c.Store {
	case StoreNone, StoreMemory, StoreRedis, StoreBadger, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	if c.CacheMaxSize <= 0 {
		return fmt.Errorf("cache max size must be positive, got %d", c.CacheMaxSize)
	}
	return nil
}

// RetryConfig returns the retry policy.
func (c *Config) RetryConfig() livetl.RetryConfig {
	return livetl.RetryConfig{
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.RetryBaseDelay,
		MaxDelay:   c.RetryMaxDelay,
	}
}

// RateLimitConfig returns the client-side rate limit, or false when disabled.
func (c *Config) RateLimitConfig() (livetl.RateLimitConfig, bool) {
	if c.RequestsPerMinute <= 0 {
		return livetl.RateLimitConfig{}, false
	}
	return livetl.RateLimitConfig{
		RequestsPerMinute: c.RequestsPerMinute,
		BurstSize:         c.RateBurst,
	}, true
}
