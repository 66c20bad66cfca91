package livetl

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultConcurrency is the default ceiling on in-flight provider calls.
const DefaultConcurrency = 3

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithCache sets the translation cache. A nil cache disables caching.
func WithCache(cache TranslationCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.model = model
		}
	}
}

// WithConcurrency sets the maximum number of in-flight attempts.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// WithRetryConfig sets the per-request retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Service) {
		s.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for provider spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithDefaultLanguage sets the code DetectLanguage falls back to.
func WithDefaultLanguage(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.defaultLang = code
		}
	}
}
