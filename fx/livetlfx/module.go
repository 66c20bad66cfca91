// Package livetlfx provides an fx module for the translation service.
package livetlfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orbitsmeet/livetl"
	"github.com/orbitsmeet/livetl/cache"
	"github.com/orbitsmeet/livetl/internal/config"
)

// Module provides a *cache.Cache and a *livetl.Service.
// Requires a *zap.Logger and a livetl.AIProvider. A cache.Store is optional;
// without one the cache is memory-only. Extra options can be contributed to
// the "livetl_options" and "livetl_cache_options" value groups.
var Module = fx.Module("livetl",
	fx.Provide(
		newCache,
		newService,
	),
)

// EnvModule contributes options read from LIVETL_* environment variables.
var EnvModule = fx.Module("livetl.env",
	fx.Provide(
		config.Load,
		fx.Annotate(cacheOptionsFromConfig, fx.ResultTags(`group:"livetl_cache_options,flatten"`)),
		fx.Annotate(serviceOptionsFromConfig, fx.ResultTags(`group:"livetl_options,flatten"`)),
	),
)

// CacheParams holds dependencies for creating the cache.
type CacheParams struct {
	fx.In

	Logger  *zap.Logger
	Store   cache.Store    `optional:"true"`
	Options []cache.Option `group:"livetl_cache_options"`
}

func newCache(p CacheParams) (*cache.Cache, error) {
	opts := append([]cache.Option{cache.WithLogger(p.Logger.Named("livetl.cache"))}, p.Options...)
	return cache.New(p.Store, opts...)
}

// ServiceParams holds dependencies for creating the service.
type ServiceParams struct {
	fx.In

	Logger    *zap.Logger
	Provider  livetl.AIProvider
	Cache     *cache.Cache
	Options   []livetl.Option `group:"livetl_options"`
	Lifecycle fx.Lifecycle
}

func newService(p ServiceParams) *livetl.Service {
	opts := append([]livetl.Option{
		livetl.WithCache(p.Cache),
		livetl.WithLogger(p.Logger.Named("livetl")),
	}, p.Options...)

	svc := livetl.NewService(p.Provider, opts...)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if n := svc.ClearQueue(); n > 0 {
				p.Logger.Info("discarded queued translations on shutdown", zap.Int("count", n))
			}
			return nil
		},
	})

	return svc
}

func cacheOptionsFromConfig(cfg *config.Config) []cache.Option {
	return []cache.Option{
		cache.WithMaxSize(cfg.CacheMaxSize),
		cache.WithTTL(cfg.CacheTTL),
		cache.WithStorageKey(cfg.StorageKey),
	}
}

func serviceOptionsFromConfig(cfg *config.Config) []livetl.Option {
	return []livetl.Option{
		livetl.WithModel(cfg.Model),
		livetl.WithConcurrency(cfg.Concurrency),
		livetl.WithRetryConfig(cfg.RetryConfig()),
		livetl.WithDefaultLanguage(cfg.DefaultLanguage),
	}
}
