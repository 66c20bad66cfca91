package livetl

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Delay before the first retry, doubled each time
	MaxDelay   time.Duration // Upper bound for a single delay (0 = unbounded)
}

// DefaultRetryConfig returns the defaults used by the service: 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Delay returns the backoff before retry number attempt+1.
func (c RetryConfig) Delay(attempt int) time.Duration {
	delay := c.BaseDelay * time.Duration(1<<attempt)
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// RetryFunc is a function that can be retried. attempt starts at 0.
type RetryFunc[T any] func(attempt int) (T, error)

// WithRetry executes fn with exponential backoff. It returns the result, the
// number of attempts made and the last error.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, int, error) {
	var lastErr error
	var zero T

	attempts := 0
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, attempts, ctx.Err()
		default:
		}

		attempts++
		result, err := fn(attempt)
		if err == nil {
			return result, attempts, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, attempts, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			timer := time.NewTimer(cfg.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, attempts, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return zero, attempts, lastErr
}

// IsRetryable reports whether err should trigger another attempt. Every
// failure spends the retry budget except context cancellation and deadlines.
// ProviderError.Retryable is informational and does not end the loop early.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// RetryableProvider wraps an AIProvider with retry logic.
type RetryableProvider struct {
	provider AIProvider
	config   RetryConfig
}

// NewRetryableProvider creates a new provider with retry logic.
func NewRetryableProvider(provider AIProvider, cfg RetryConfig) *RetryableProvider {
	return &RetryableProvider{
		provider: provider,
		config:   cfg,
	}
}

// Generate implements AIProvider with retry logic.
func (p *RetryableProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	text, attempts, err := WithRetry(ctx, p.config, func(int) (string, error) {
		return p.provider.Generate(ctx, model, prompt)
	})
	if err != nil && attempts > 1 {
		return "", &TranslationError{Attempts: attempts, Cause: err}
	}
	return text, err
}
