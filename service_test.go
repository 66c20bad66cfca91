package livetl

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// stubProvider is a scripted AIProvider. The first `failures` calls fail with
// a retryable error; after that fn (when set) or reply answers.
type stubProvider struct {
	mu       sync.Mutex
	n        int
	failures int
	err      error
	reply    string
	fn       func(text string) (string, error)
	delay    time.Duration
	block    chan struct{}
	inflight int
	peak     int
	prompts  []string
}

func (p *stubProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	p.mu.Lock()
	p.n++
	fail := p.n <= p.failures
	p.inflight++
	if p.inflight > p.peak {
		p.peak = p.inflight
	}
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
	}()

	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	if fail {
		if p.err != nil {
			return "", p.err
		}
		return "", &ProviderError{Message: "service unavailable", StatusCode: 503, Retryable: true}
	}
	if p.fn != nil {
		return p.fn(promptText(prompt))
	}
	return p.reply, nil
}

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func (p *stubProvider) peakConcurrency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

// promptText recovers the quoted source text from a translation prompt.
func promptText(prompt string) string {
	i := strings.LastIndex(prompt, "Text to translate: ")
	if i < 0 {
		return prompt
	}
	quoted := prompt[i+len("Text to translate: "):]
	return strings.TrimSuffix(strings.TrimPrefix(quoted, `"`), `"`)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{m: make(map[string]string)}
}

func (c *mapCache) Get(text, src, tgt string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[src+":"+tgt+":"+text]
	return v, ok
}

func (c *mapCache) Set(text, src, tgt, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[src+":"+tgt+":"+text] = translation
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func spanish(text string) (string, error) {
	switch text {
	case "Good morning":
		return "Buenos días", nil
	case "Thank you":
		return "Gracias", nil
	}
	return "[" + text + "]", nil
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(&stubProvider{}, WithConcurrency(0))

	if s.Model() != DefaultModel {
		t.Errorf("Model = %q, want %q", s.Model(), DefaultModel)
	}
	if s.Concurrency() != 1 {
		t.Errorf("Concurrency = %d, want 1 for a non-positive setting", s.Concurrency())
	}

	status := s.QueueStatus()
	if status.QueueLength != 0 || status.ActiveRequests != 0 || status.Processing {
		t.Errorf("unexpected initial status %+v", status)
	}
}

func TestService_Translate(t *testing.T) {
	p := &stubProvider{fn: spanish}
	cache := newMapCache()
	s := NewService(p, WithCache(cache), WithModel("test-model"))

	req := Request{Text: "Good morning", SourceLang: "en", TargetLang: "es"}
	result, err := s.Translate(context.Background(), req)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.Translation != "Buenos días" || result.FromCache {
		t.Errorf("first result = %+v", result)
	}
	if result.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", result.Confidence)
	}

	if v, ok := cache.Get("Good morning", "en", "es"); !ok || v != "Buenos días" {
		t.Errorf("cache not populated: %q, %v", v, ok)
	}

	result, err = s.Translate(context.Background(), req)
	if err != nil {
		t.Fatalf("cached Translate failed: %v", err)
	}
	if !result.FromCache || result.Confidence != 1.0 || result.Translation != "Buenos días" {
		t.Errorf("cached result = %+v", result)
	}
	if p.calls() != 1 {
		t.Errorf("provider called %d times, want 1", p.calls())
	}
}

func TestService_TranslateIncludesContext(t *testing.T) {
	p := &stubProvider{reply: "Empecemos"}
	s := NewService(p)

	_, err := s.Translate(context.Background(), Request{
		Text:       "Let's begin",
		SourceLang: "en",
		TargetLang: "es",
		Context:    []string{"Hi all"},
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if !strings.HasPrefix(p.prompts[0], "Previous context:\nHi all\n") {
		t.Errorf("prompt missing context: %q", p.prompts[0])
	}
}

func TestService_TrimsResponse(t *testing.T) {
	s := NewService(&stubProvider{reply: "  Hola \n"})

	result, err := s.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.Translation != "Hola" {
		t.Errorf("Translation = %q, want trimmed", result.Translation)
	}
}

func TestService_ConcurrencyCeiling(t *testing.T) {
	p := &stubProvider{reply: "ok", delay: 20 * time.Millisecond}
	s := NewService(p, WithConcurrency(2))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text := "line " + strconv.Itoa(i)
			if _, err := s.Translate(context.Background(), Request{Text: text, SourceLang: "en", TargetLang: "es"}); err != nil {
				t.Errorf("Translate(%q) failed: %v", text, err)
			}
		}()
	}
	wg.Wait()

	if p.calls() != 6 {
		t.Errorf("calls = %d, want 6", p.calls())
	}
	if peak := p.peakConcurrency(); peak > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", peak)
	}

	status := s.QueueStatus()
	if status.QueueLength != 0 || status.ActiveRequests != 0 {
		t.Errorf("queue not drained: %+v", status)
	}
}

func TestService_RetrySucceeds(t *testing.T) {
	p := &stubProvider{failures: 2, reply: "Hola"}
	s := NewService(p, WithRetryConfig(fastRetry(3)))

	result, err := s.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.Translation != "Hola" {
		t.Errorf("Translation = %q", result.Translation)
	}
	if p.calls() != 3 {
		t.Errorf("calls = %d, want 3", p.calls())
	}
}

func TestService_RetryExhausted(t *testing.T) {
	p := &stubProvider{failures: 100}
	cache := newMapCache()
	s := NewService(p, WithCache(cache), WithRetryConfig(fastRetry(2)))

	_, err := s.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "es"})

	var te *TranslationError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranslationError, got %T: %v", err, err)
	}
	if te.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", te.Attempts)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 503 {
		t.Errorf("last provider error not preserved: %v", err)
	}
	if _, ok := cache.Get("Hello", "en", "es"); ok {
		t.Error("failed translation must not be cached")
	}
}

func TestService_SucceedsAfterExactlyMaxRetries(t *testing.T) {
	p := &stubProvider{failures: 3, reply: "Hola"}
	s := NewService(p, WithRetryConfig(fastRetry(3)))

	result, err := s.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.Translation != "Hola" {
		t.Errorf("Translation = %q", result.Translation)
	}
	if p.calls() != 4 {
		t.Errorf("calls = %d, want 4", p.calls())
	}
}

func TestService_ClientErrorsUseFullBudget(t *testing.T) {
	p := &stubProvider{failures: 100, err: &ProviderError{Message: "model error", StatusCode: 400}}
	s := NewService(p, WithRetryConfig(fastRetry(3)))

	_, err := s.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "es"})

	var te *TranslationError
	if !errors.As(err, &te) || te.Attempts != 4 {
		t.Fatalf("expected 4 attempts, got %v", err)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 400 {
		t.Errorf("last provider error not preserved: %v", err)
	}
	if p.calls() != 4 {
		t.Errorf("calls = %d, want 4", p.calls())
	}
}

func TestService_MultilineTextSentVerbatim(t *testing.T) {
	p := &stubProvider{fn: func(text string) (string, error) { return text, nil }}
	s := NewService(p)

	text := "first line\nsecond \"line\""
	result, err := s.Translate(context.Background(), Request{Text: text, SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.Translation != text {
		t.Errorf("provider saw %q, want %q", result.Translation, text)
	}
}

func TestService_EmptyResponse(t *testing.T) {
	p := &stubProvider{reply: "   "}
	s := NewService(p, WithRetryConfig(fastRetry(1)))

	_, err := s.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "es"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if p.calls() != 2 {
		t.Errorf("empty responses should be retried, got %d calls", p.calls())
	}
}

func TestService_BatchTranslate(t *testing.T) {
	p := &stubProvider{fn: func(text string) (string, error) {
		// Later items finish first.
		time.Sleep(time.Duration(10-len(text)) * time.Millisecond)
		return strings.ToUpper(text), nil
	}}
	cache := newMapCache()
	cache.Set("ccc", "en", "es", "cached")
	s := NewService(p, WithCache(cache), WithConcurrency(3))

	results, err := s.BatchTranslate(context.Background(), []string{"a", "bb", "ccc", "dddd"}, "en", "es")
	if err != nil {
		t.Fatalf("BatchTranslate failed: %v", err)
	}

	want := []string{"A", "BB", "cached", "DDDD"}
	for i, r := range results {
		if r.Translation != want[i] {
			t.Errorf("results[%d] = %q, want %q", i, r.Translation, want[i])
		}
	}
	if !results[2].FromCache {
		t.Error("results[2] should come from cache")
	}
	if p.calls() != 3 {
		t.Errorf("calls = %d, want 3", p.calls())
	}
}

func TestService_BatchTranslateFails(t *testing.T) {
	p := &stubProvider{fn: func(text string) (string, error) {
		if text == "bad" {
			return "", &ProviderError{Message: "blocked"}
		}
		return text, nil
	}}
	s := NewService(p, WithRetryConfig(fastRetry(0)))

	results, err := s.BatchTranslate(context.Background(), []string{"ok", "bad"}, "en", "es")
	if err == nil {
		t.Fatal("expected batch error")
	}
	if results != nil {
		t.Errorf("failed batch should return nil results, got %v", results)
	}
}

func TestService_BatchTranslatePartial(t *testing.T) {
	p := &stubProvider{fn: func(text string) (string, error) {
		if text == "bad" {
			return "", &ProviderError{Message: "blocked"}
		}
		return spanish(text)
	}}
	s := NewService(p, WithRetryConfig(fastRetry(0)))

	items := s.BatchTranslatePartial(context.Background(), []string{"Good morning", "bad", "Thank you"}, "en", "es")
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}

	if items[0].Err != nil || items[0].Result.Translation != "Buenos días" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Err == nil || items[1].Result != nil {
		t.Errorf("items[1] should fail, got %+v", items[1])
	}
	if items[2].Err != nil || items[2].Result.Translation != "Gracias" {
		t.Errorf("items[2] = %+v", items[2])
	}
}

func TestService_ClearQueue(t *testing.T) {
	p := &stubProvider{reply: "ok", block: make(chan struct{})}
	s := NewService(p, WithConcurrency(1))

	errs := make(chan error, 3)
	translate := func(text string) {
		_, err := s.Translate(context.Background(), Request{Text: text, SourceLang: "en", TargetLang: "es"})
		errs <- err
	}

	go translate("first")
	waitFor(t, func() bool { return s.QueueStatus().ActiveRequests == 1 })
	go translate("second")
	go translate("third")
	waitFor(t, func() bool { return s.QueueStatus().QueueLength == 2 })

	if n := s.ClearQueue(); n != 2 {
		t.Errorf("ClearQueue = %d, want 2", n)
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; !errors.Is(err, ErrQueueCleared) {
			t.Errorf("queued caller got %v, want ErrQueueCleared", err)
		}
	}

	close(p.block)
	if err := <-errs; err != nil {
		t.Errorf("in-flight request should complete, got %v", err)
	}
	if p.calls() != 1 {
		t.Errorf("cleared requests must not reach the provider, got %d calls", p.calls())
	}
	if n := s.ClearQueue(); n != 0 {
		t.Errorf("second ClearQueue = %d, want 0", n)
	}
}

func TestService_CallerCancelStillPopulatesCache(t *testing.T) {
	p := &stubProvider{reply: "ok", block: make(chan struct{})}
	cache := newMapCache()
	s := NewService(p, WithCache(cache), WithConcurrency(1))

	go s.Translate(context.Background(), Request{Text: "first", SourceLang: "en", TargetLang: "es"})
	waitFor(t, func() bool { return s.QueueStatus().ActiveRequests == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.Translate(ctx, Request{Text: "second", SourceLang: "en", TargetLang: "es"})
		errc <- err
	}()
	waitFor(t, func() bool { return s.QueueStatus().QueueLength == 1 })

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(p.block)
	waitFor(t, func() bool {
		_, ok := cache.Get("second", "en", "es")
		return ok
	})
}

func TestService_DetectLanguage(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"plain code", "es", nil, "es"},
		{"decorated code", " 'FR'.\n", nil, "fr"},
		{"region", "pt-BR", nil, "pt"},
		{"sentence", "The text is in German", nil, "en"},
		{"provider error", "", &ProviderError{Message: "down"}, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{reply: tt.reply, err: tt.err}
			if tt.err != nil {
				p.failures = 1
			}
			s := NewService(p)

			if got := s.DetectLanguage(context.Background(), "some text"); got != tt.want {
				t.Errorf("DetectLanguage = %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(p.prompts[0], "Detect the language") {
				t.Errorf("unexpected prompt %q", p.prompts[0])
			}
		})
	}
}

func TestService_DetectLanguageFallbackLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewService(&stubProvider{reply: "no idea"},
		WithLogger(zap.New(core)),
		WithDefaultLanguage("fr"),
	)

	if got := s.DetectLanguage(context.Background(), "???"); got != "fr" {
		t.Errorf("DetectLanguage = %q, want configured default fr", got)
	}

	entries := logs.FilterMessage("language detection returned unusable code").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["response"] != "no idea" {
		t.Errorf("warning should carry the response, got %v", entries[0].ContextMap())
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0.5},
		{"sí", 0.5},
		{"Hola", 0.7},
		{"Gracias!!", 0.7},
		{"Buenos días", 0.9},
	}

	s := NewService(&stubProvider{})
	for _, tt := range tests {
		if got := s.Confidence(tt.text); got != tt.want {
			t.Errorf("Confidence(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestService_TracesAttempts(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p := &stubProvider{failures: 1, reply: "Hola"}
	s := NewService(p,
		WithTracer(tp.Tracer("test")),
		WithRetryConfig(fastRetry(2)),
	)

	if _, err := s.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "es"}); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 attempt spans, got %d", len(spans))
	}
	for _, span := range spans {
		if span.Name() != "livetl.translate.attempt" {
			t.Errorf("span name = %q", span.Name())
		}
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("failed attempt span status = %v, want Error", spans[0].Status().Code)
	}
	if spans[1].Status().Code == codes.Error {
		t.Error("successful attempt span should not be marked as error")
	}
}
