package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	translateMarker = "Text to translate: "
	detectMarker    = "Detect the language"
	detectTextLabel = "Text: "
)

// MockProvider is a scriptable fake AI provider. It recognizes the
// translation and detection prompts the service builds and answers from
// Translations and DetectedLanguage. It is safe for concurrent use.
type MockProvider struct {
	mu sync.Mutex

	Translations     map[string]string // Source text to translation
	DetectedLanguage string            // Answer to detection prompts (default "en")
	Delay            time.Duration     // Latency added to every call
	Err              error             // Returned by every call when set

	failures []error // Returned, in order, by the next calls

	callCount  int
	inFlight   int
	peak       int
	lastPrompt string
	lastModel  string
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":        "Hola",
			"World":        "Mundo",
			"Hello World":  "Hola Mundo",
			"Good morning": "Buenos días",
			"Thank you":    "Gracias",
		},
		DetectedLanguage: "en",
	}
}

// FailNext makes the next len(errs) calls fail with errs, in order.
func (m *MockProvider) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Generate implements AIProvider.
func (m *MockProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
	m.lastPrompt = prompt
	m.lastModel = model
	delay := m.Delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}

	if strings.HasPrefix(prompt, detectMarker) {
		return m.DetectedLanguage, nil
	}

	text := extractText(prompt)
	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}
	// Return bracketed text for unknown translations
	return fmt.Sprintf("[%s]", text), nil
}

// CallCount returns how many times Generate was called.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// PeakConcurrency returns the largest number of overlapping calls seen.
func (m *MockProvider) PeakConcurrency() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// LastPrompt returns the most recent prompt and model.
func (m *MockProvider) LastPrompt() (prompt, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt, m.lastModel
}

// Reset clears recorded calls and pending failures.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.peak = 0
	m.lastPrompt = ""
	m.lastModel = ""
	m.failures = nil
}

// extractText pulls the quoted source text out of a service prompt. Prompts
// it does not recognize are returned whole.
func extractText(prompt string) string {
	marker := translateMarker
	if strings.HasPrefix(prompt, detectMarker) {
		marker = detectTextLabel
	}

	i := strings.LastIndex(prompt, marker)
	if i < 0 {
		return prompt
	}

	quoted := prompt[i+len(marker):]
	if len(quoted) >= 2 && strings.HasPrefix(quoted, `"`) && strings.HasSuffix(quoted, `"`) {
		return quoted[1 : len(quoted)-1]
	}
	return quoted
}

// Verify MockProvider implements AIProvider
var _ AIProvider = (*MockProvider)(nil)
