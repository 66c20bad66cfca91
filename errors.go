package livetl

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the provider answers with blank text.
	ErrEmptyResponse = errors.New("empty translation response")

	// ErrQueueCleared settles requests that were still queued when ClearQueue ran.
	ErrQueueCleared = errors.New("translation request discarded from queue")
)

// TranslationError is returned to the caller once every attempt has failed.
type TranslationError struct {
	Attempts int
	Cause    error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("translation failed after %d attempts: %v", e.Attempts, e.Cause)
	}
	return fmt.Sprintf("translation failed after %d attempts", e.Attempts)
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates an AI provider failure (API error, rate limit, etc.).
type ProviderError struct {
	Message    string
	Cause      error
	StatusCode int  // HTTP status when known, 0 otherwise
	Retryable  bool // Provider's view of whether the failure is transient
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
