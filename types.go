// Package livetl provides live, AI-assisted translation for meeting captions
// and chat.
package livetl

import "context"

// DefaultModel is the model identifier dedicated to translation requests.
const DefaultModel = "gemini-2.5-flash"

// DefaultLanguage is returned by DetectLanguage when detection fails.
const DefaultLanguage = "en"

// AIProvider is the interface for generative text backends.
type AIProvider interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// TranslationCache is the interface for translation memoization.
type TranslationCache interface {
	Get(text, sourceLang, targetLang string) (string, bool)
	Set(text, sourceLang, targetLang, translation string)
}

// Request is a single translation request.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	Context    []string // Prior utterances, oldest first
}

// Result is the outcome of a translation.
type Result struct {
	Translation string
	FromCache   bool
	Confidence  float64 // Heuristic in [0,1], not a correctness guarantee
}

// BatchItem is one entry of a partial batch result.
type BatchItem struct {
	Result *Result
	Err    error
}

// QueueStatus is a snapshot of the request queue.
type QueueStatus struct {
	QueueLength    int  // Requests waiting for a slot
	ActiveRequests int  // Attempts currently in flight
	Processing     bool // Whether a drain loop is running
}
