package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orbitsmeet/livetl"
	"github.com/orbitsmeet/livetl/cache"
	"github.com/orbitsmeet/livetl/internal/config"
	"github.com/orbitsmeet/livetl/provider"
	"github.com/orbitsmeet/livetl/store/badgerstore"
	"github.com/orbitsmeet/livetl/store/memstore"
	"github.com/orbitsmeet/livetl/store/redisstore"
	"github.com/orbitsmeet/livetl/store/sqlitestore"
)

// app holds what the subcommands share. Components are built lazily so
// commands that only touch the cache never need provider credentials.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flags struct {
		provider    string
		model       string
		store       string
		concurrency int
		dryRun      bool
		verbose     bool
	}

	cfg     *config.Config
	logger  *zap.Logger
	cache   *cache.Cache
	service *livetl.Service
	closers []func() error
}

func (a *app) settings() *config.Config {
	if a.cfg != nil {
		return a.cfg
	}

	cfg := config.Load()
	if a.flags.provider != "" {
		cfg.Provider = strings.ToLower(a.flags.provider)
	}
	if a.flags.dryRun {
		cfg.Provider = config.ProviderMock
	}
	if a.flags.model != "" {
		cfg.Model = a.flags.model
	}
	if a.flags.store != "" {
		cfg.Store = strings.ToLower(a.flags.store)
	}
	if a.flags.concurrency > 0 {
		cfg.Concurrency = a.flags.concurrency
	}
	if a.flags.verbose {
		cfg.LogLevel = "debug"
	}

	a.cfg = cfg
	return cfg
}

func (a *app) log() *zap.Logger {
	if a.logger == nil {
		a.logger = newLogger(a.stderr, a.settings().LogLevel, a.flags.verbose)
	}
	return a.logger
}

// newLogger writes JSON logs, or human-readable ones when verbose, to w.
func newLogger(w io.Writer, level string, verbose bool) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if verbose {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)).Named(livetl.Name)
}

// openCache opens the configured store and restores the cache from it.
func (a *app) openCache() (*cache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}

	cfg := a.settings()
	if err := cfg.ValidateCache(); err != nil {
		return nil, err
	}

	store, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(store,
		cache.WithMaxSize(cfg.CacheMaxSize),
		cache.WithTTL(cfg.CacheTTL),
		cache.WithStorageKey(cfg.StorageKey),
		cache.WithLogger(a.log().Named("cache")),
	)
	if err != nil {
		return nil, err
	}

	a.cache = c
	return c, nil
}

func (a *app) openStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Store {
	case config.StoreNone:
		return nil, nil

	case config.StoreMemory:
		return memstore.New(), nil

	case config.StoreRedis:
		s, err := redisstore.New(redisstore.Config{URL: cfg.RedisURL, KeyPrefix: cfg.RedisPrefix})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil

	case config.StoreBadger:
		if err := os.MkdirAll(cfg.BadgerDir, 0o750); err != nil {
			return nil, fmt.Errorf("creating badger directory: %w", err)
		}
		s, err := badgerstore.New(badgerstore.Config{DataDir: cfg.BadgerDir})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil

	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o750); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}

	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// openService builds the provider stack and the translation service.
func (a *app) openService() (*livetl.Service, error) {
	if a.service != nil {
		return a.service, nil
	}

	cfg := a.settings()
	if err := cfg.ValidateProvider(); err != nil {
		return nil, err
	}

	c, err := a.openCache()
	if err != nil {
		return nil, err
	}

	p, model := newProvider(cfg)
	if rl, ok := cfg.RateLimitConfig(); ok {
		p = livetl.NewRateLimitedProvider(p, rl)
	}

	a.service = livetl.NewService(p,
		livetl.WithCache(c),
		livetl.WithModel(model),
		livetl.WithConcurrency(cfg.Concurrency),
		livetl.WithRetryConfig(cfg.RetryConfig()),
		livetl.WithDefaultLanguage(cfg.DefaultLanguage),
		livetl.WithLogger(a.log().Named("service")),
	)
	return a.service, nil
}

// newProvider returns the provider and the model to request from it.
func newProvider(cfg *config.Config) (livetl.AIProvider, string) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		p := provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: float32(cfg.Temperature),
			BaseURL:     cfg.BaseURL,
		})
		return p, p.Model()

	case config.ProviderMock:
		return provider.NewMockProvider(), cfg.Model

	default:
		p := provider.NewGeminiProvider(provider.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
		})
		return p, p.Model()
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("failed to close store", zap.Error(err))
		}
	}
	a.closers = nil

	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
