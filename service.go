package livetl

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orbitsmeet/livetl/internal/metrics"
)

const tracerName = "github.com/orbitsmeet/livetl"

// Service queues translation requests, bounds how many reach the provider at
// once, retries failures with backoff and memoizes successes in the cache.
type Service struct {
	provider    AIProvider
	cache       TranslationCache
	model       string
	retry       RetryConfig
	concurrency int
	defaultLang string
	logger      *zap.Logger
	tracer      trace.Tracer

	mu         sync.Mutex
	queue      []*queueItem
	active     int
	processing bool
}

// queueItem pairs a pending request with the channel its caller waits on.
type queueItem struct {
	id       string
	request  Request
	ctx      context.Context
	done     chan outcome
	queuedAt time.Time
}

type outcome struct {
	result *Result
	err    error
}

// NewService creates a translation service backed by provider.
func NewService(provider AIProvider, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		model:       DefaultModel,
		retry:       DefaultRetryConfig(),
		concurrency: DefaultConcurrency,
		defaultLang: DefaultLanguage,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.concurrency < 1 {
		s.concurrency = 1
	}

	return s
}

// Translate returns the translation for req. Cache hits return immediately;
// misses wait in the queue for a free slot. If ctx ends first the caller
// stops waiting, but an attempt that was already dispatched still completes
// and populates the cache.
func (s *Service) Translate(ctx context.Context, req Request) (*Result, error) {
	result, done := s.submit(ctx, req)
	if result != nil {
		return result, nil
	}
	return await(ctx, done)
}

// submit answers from the cache or enqueues req and returns its channel.
func (s *Service) submit(ctx context.Context, req Request) (*Result, <-chan outcome) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(req.Text, req.SourceLang, req.TargetLang); ok {
			metrics.Translations.WithLabelValues("cache").Inc()
			return &Result{Translation: cached, FromCache: true, Confidence: 1.0}, nil
		}
	}

	item := &queueItem{
		id:       uuid.NewString(),
		request:  req,
		ctx:      context.WithoutCancel(ctx),
		done:     make(chan outcome, 1),
		queuedAt: time.Now(),
	}

	s.mu.Lock()
	s.queue = append(s.queue, item)
	queued := len(s.queue)
	s.mu.Unlock()
	metrics.QueueLength.Inc()

	s.logger.Debug("translation queued",
		zap.String("request_id", item.id),
		zap.String("source", req.SourceLang),
		zap.String("target", req.TargetLang),
		zap.Int("queue_length", queued),
	)

	s.processQueue()
	return nil, item.done
}

func await(ctx context.Context, done <-chan outcome) (*Result, error) {
	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// processQueue dispatches queued items until the concurrency ceiling is
// reached. Calling it while a drain is already running is a no-op.
func (s *Service) processQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing || len(s.queue) == 0 || s.active >= s.concurrency {
		return
	}

	s.processing = true
	for len(s.queue) > 0 && s.active < s.concurrency {
		item := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.active++

		metrics.QueueLength.Dec()
		metrics.InFlight.Inc()

		go s.run(item)
	}
	s.processing = false
}

// run performs one queued request and frees its slot when settled.
func (s *Service) run(item *queueItem) {
	start := time.Now()
	result, err := s.translateWithRetry(item)
	metrics.TranslationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Translations.WithLabelValues("failed").Inc()
		s.logger.Info("translation failed",
			zap.String("request_id", item.id),
			zap.Error(err),
		)
	} else {
		metrics.Translations.WithLabelValues("provider").Inc()
	}

	item.done <- outcome{result: result, err: err}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	metrics.InFlight.Dec()

	s.processQueue()
}

func (s *Service) translateWithRetry(item *queueItem) (*Result, error) {
	req := item.request
	prompt := BuildTranslationPrompt(req)

	translation, attempts, err := WithRetry(item.ctx, s.retry, func(attempt int) (string, error) {
		text, err := s.generate(item.ctx, prompt, attempt)
		if err != nil && attempt < s.retry.MaxRetries && IsRetryable(err) {
			s.logger.Debug("translation attempt failed, backing off",
				zap.String("request_id", item.id),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", s.retry.Delay(attempt)),
				zap.Error(err),
			)
		}
		return text, err
	})
	if err != nil {
		return nil, &TranslationError{Attempts: attempts, Cause: err}
	}

	if s.cache != nil {
		s.cache.Set(req.Text, req.SourceLang, req.TargetLang, translation)
	}

	s.logger.Debug("translation completed",
		zap.String("request_id", item.id),
		zap.Int("attempts", attempts),
		zap.Duration("waited", time.Since(item.queuedAt)),
	)

	return &Result{
		Translation: translation,
		FromCache:   false,
		Confidence:  0.9,
	}, nil
}

// generate makes a single provider call and rejects blank answers.
func (s *Service) generate(ctx context.Context, prompt string, attempt int) (string, error) {
	ctx, span := s.tracer.Start(ctx, "livetl.translate.attempt",
		trace.WithAttributes(
			attribute.String("livetl.model", s.model),
			attribute.Int("livetl.attempt", attempt),
		),
	)
	defer span.End()

	text, err := s.provider.Generate(ctx, s.model, prompt)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = ErrEmptyResponse
			metrics.Attempts.WithLabelValues("empty").Inc()
		} else {
			metrics.Attempts.WithLabelValues("success").Inc()
		}
	} else {
		metrics.Attempts.WithLabelValues("error").Inc()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

// BatchTranslate translates texts concurrently through the shared queue and
// returns results in input order. It fails as a whole on the first error.
func (s *Service) BatchTranslate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]*Result, error) {
	results := make([]*Result, len(texts))
	pending := make([]<-chan outcome, len(texts))

	// Enqueue in input order so admission stays FIFO for the batch.
	for i, text := range texts {
		results[i], pending[i] = s.submit(ctx, Request{
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range texts {
		if results[i] != nil {
			continue
		}
		g.Go(func() error {
			r, err := await(gctx, pending[i])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BatchTranslatePartial is like BatchTranslate but reports each item's
// outcome separately instead of failing the whole batch.
func (s *Service) BatchTranslatePartial(ctx context.Context, texts []string, sourceLang, targetLang string) []BatchItem {
	items := make([]BatchItem, len(texts))
	pending := make([]<-chan outcome, len(texts))

	for i, text := range texts {
		items[i].Result, pending[i] = s.submit(ctx, Request{
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		})
	}

	var wg sync.WaitGroup
	for i := range texts {
		if items[i].Result != nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			items[i].Result, items[i].Err = await(ctx, pending[i])
		}()
	}
	wg.Wait()

	return items
}

// DetectLanguage asks the model for the ISO 639-1 code of text. Detection is
// best-effort: any failure returns the configured default code.
func (s *Service) DetectLanguage(ctx context.Context, text string) string {
	ctx, span := s.tracer.Start(ctx, "livetl.detect")
	defer span.End()

	resp, err := s.provider.Generate(ctx, s.model, BuildDetectionPrompt(text))
	if err != nil {
		span.RecordError(err)
		metrics.DetectionFallbacks.Inc()
		s.logger.Warn("language detection failed", zap.Error(err))
		return s.defaultLang
	}

	code, ok := NormalizeLanguageCode(resp)
	if !ok {
		metrics.DetectionFallbacks.Inc()
		s.logger.Warn("language detection returned unusable code", zap.String("response", resp))
		return s.defaultLang
	}

	span.SetAttributes(attribute.String("livetl.language", code))
	return code
}

// Confidence estimates translation quality from its length alone.
func (s *Service) Confidence(translation string) float64 {
	return Confidence(translation)
}

// Confidence estimates translation quality from its length alone.
func Confidence(translation string) float64 {
	n := utf8.RuneCountInString(translation)
	switch {
	case n < 3:
		return 0.5
	case n < 10:
		return 0.7
	default:
		return 0.9
	}
}

// ClearQueue discards every request that has not been dispatched yet. Their
// callers receive ErrQueueCleared. In-flight attempts are not affected.
func (s *Service) ClearQueue() int {
	s.mu.Lock()
	cleared := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, item := range cleared {
		item.done <- outcome{err: ErrQueueCleared}
	}

	if n := len(cleared); n > 0 {
		metrics.QueueLength.Sub(float64(n))
		metrics.Translations.WithLabelValues("cleared").Add(float64(n))
		s.logger.Info("translation queue cleared", zap.Int("discarded", n))
	}

	return len(cleared)
}

// QueueStatus returns a snapshot of the queue.
func (s *Service) QueueStatus() QueueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return QueueStatus{
		QueueLength:    len(s.queue),
		ActiveRequests: s.active,
		Processing:     s.processing,
	}
}

// Model returns the model identifier used for requests.
func (s *Service) Model() string {
	return s.model
}

// Concurrency returns the in-flight ceiling.
func (s *Service) Concurrency() int {
	return s.concurrency
}
