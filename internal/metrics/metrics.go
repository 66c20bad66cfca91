// Package metrics defines the Prometheus collectors shared by the cache and
// the translation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livetl_cache_hits_total",
			Help: "Total number of translation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livetl_cache_misses_total",
			Help: "Total number of translation cache misses",
		},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetl_cache_evictions_total",
			Help: "Total number of entries removed from the translation cache",
		},
		[]string{"reason"}, // reason: lru, expired
	)

	CachePersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetl_cache_persist_errors_total",
			Help: "Total number of failed snapshot loads and saves",
		},
		[]string{"op"}, // op: load, save, decode, remove
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livetl_cache_entries",
			Help: "Current number of entries in the translation cache",
		},
	)

	// Queue metrics
	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livetl_queue_length",
			Help: "Number of translation requests waiting for a slot",
		},
	)

	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livetl_inflight_requests",
			Help: "Number of translation attempts currently in flight",
		},
	)

	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetl_provider_attempts_total",
			Help: "Total number of provider calls made for translations",
		},
		[]string{"result"}, // result: success, error, empty
	)

	Translations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetl_translations_total",
			Help: "Total number of settled translation requests",
		},
		[]string{"source"}, // source: cache, provider, failed, cleared
	)

	TranslationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "livetl_translation_duration_seconds",
			Help:    "Time from dispatch to settlement of queued translations",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	DetectionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livetl_detection_fallbacks_total",
			Help: "Total number of language detections that fell back to the default",
		},
	)

	RateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livetl_rate_limit_waits_total",
			Help: "Total number of provider calls that waited for the rate limiter",
		},
	)
)
