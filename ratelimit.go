package livetl

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/orbitsmeet/livetl/internal/metrics"
)

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewRateLimiter creates a token bucket limiter from cfg.
func NewRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60 // Default: 60 RPM
	}

	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}

	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// RateLimitedProvider wraps an AIProvider with rate limiting.
type RateLimitedProvider struct {
	provider AIProvider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider creates a new rate-limited provider.
func NewRateLimitedProvider(provider AIProvider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
	}
}

// Generate implements AIProvider with rate limiting.
func (p *RateLimitedProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	if !p.limiter.Allow() {
		metrics.RateLimitWaits.Inc()
		if err := p.limiter.Wait(ctx); err != nil {
			return "", &ProviderError{
				Message:   "rate limit wait cancelled",
				Cause:     err,
				Retryable: false,
			}
		}
	}

	return p.provider.Generate(ctx, model, prompt)
}

// Limiter returns the underlying rate limiter for inspection.
func (p *RateLimitedProvider) Limiter() *rate.Limiter {
	return p.limiter
}
