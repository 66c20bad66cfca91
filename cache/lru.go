package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"

	"github.com/orbitsmeet/livetl/internal/metrics"
)

// Cache is a size-bounded LRU translation cache with TTL expiry. Its contents
// are written through to a Store after every mutation so they survive
// restarts. Persistence problems are logged and never returned: the cache
// then simply behaves as a memory-only cache.
type Cache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *Entry]

	store      Store
	storageKey string
	maxSize    int
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxSize sets the entry capacity.
func WithMaxSize(n int) Option {
	return func(c *Cache) {
		c.maxSize = n
	}
}

// WithTTL sets how long an entry stays valid after it is written.
// A TTL of zero or less disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithStorageKey overrides the key the snapshot is persisted under.
func WithStorageKey(key string) Option {
	return func(c *Cache) {
		if key != "" {
			c.storageKey = key
		}
	}
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache and restores any snapshot held by store. A nil store
// gives a memory-only cache.
func New(store Store, opts ...Option) (*Cache, error) {
	c := &Cache{
		store:      store,
		storageKey: DefaultStorageKey,
		maxSize:    DefaultMaxSize,
		ttl:        DefaultTTL,
		now:        time.Now,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxSize <= 0 {
		return nil, fmt.Errorf("cache: max size must be positive, got %d", c.maxSize)
	}

	l, err := simplelru.NewLRU[string, *Entry](c.maxSize, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	c.lru = l

	c.load()
	return c, nil
}

// Get returns the cached translation, refreshing its recency. Expired entries
// are removed and reported as a miss.
func (c *Cache) Get(text, sourceLang, targetLang string) (string, bool) {
	key := Key(text, sourceLang, targetLang)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Peek(key)
	if !ok {
		metrics.CacheMisses.Inc()
		return "", false
	}

	if c.expired(entry, c.now()) {
		c.lru.Remove(key)
		metrics.CacheMisses.Inc()
		metrics.CacheEvictions.WithLabelValues("expired").Inc()
		c.persist()
		return "", false
	}

	entry.AccessCount++
	c.lru.Get(key) // moves key to most-recently-used
	metrics.CacheHits.Inc()
	c.persist()

	return entry.Translation, true
}

// Set stores a translation. When the cache is full and key is new, the
// least recently used entry is evicted first. Overwriting an existing key
// resets its timestamp and access count but keeps its recency position.
func (c *Cache) Set(text, sourceLang, targetLang, translation string) {
	key := Key(text, sourceLang, targetLang)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lru.Peek(key); ok {
		entry.Translation = translation
		entry.CreatedAt = c.now()
		entry.AccessCount = 1
		c.persist()
		return
	}

	if c.lru.Len() >= c.maxSize {
		if evicted, _, ok := c.lru.RemoveOldest(); ok {
			metrics.CacheEvictions.WithLabelValues("lru").Inc()
			c.logger.Debug("evicted translation", zap.String("key", evicted))
		}
	}

	c.lru.Add(key, &Entry{
		Translation: translation,
		CreatedAt:   c.now(),
		AccessCount: 1,
	})
	c.persist()
}

// Clear removes every entry and deletes the persisted snapshot.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	metrics.CacheEntries.Set(0)

	if c.store == nil {
		return
	}
	if err := c.store.Remove(c.storageKey); err != nil {
		metrics.CachePersistErrors.WithLabelValues("remove").Inc()
		c.logger.Warn("failed to remove translation cache snapshot",
			zap.String("storage_key", c.storageKey),
			zap.Error(err),
		)
	}
}

// Cleanup removes every expired entry and returns how many were removed.
// It is not run automatically.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if ok && c.expired(entry, now) {
			c.lru.Remove(key)
			removed++
		}
	}

	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues("expired").Add(float64(removed))
	}
	c.persist()

	return removed
}

// Stats returns the current size, capacity and TTL.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:    c.lru.Len(),
		MaxSize: c.maxSize,
		TTL:     c.ttl,
	}
}

// Len returns the number of entries, including ones not yet found expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Entries returns a copy of the contents, least recently used first.
func (c *Cache) Entries() []KeyedEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cache) expired(e *Entry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.CreatedAt) > c.ttl
}

// snapshot must be called with c.mu held.
func (c *Cache) snapshot() []KeyedEntry {
	keys := c.lru.Keys()
	entries := make([]KeyedEntry, 0, len(keys))
	for _, key := range keys {
		if e, ok := c.lru.Peek(key); ok {
			entries = append(entries, KeyedEntry{Key: key, Entry: *e})
		}
	}
	return entries
}

// insert adds entries in order without touching their timestamps.
// Must be called with c.mu held.
func (c *Cache) insert(entries []KeyedEntry) {
	for _, ke := range entries {
		entry := ke.Entry
		c.lru.Add(ke.Key, &entry)
	}
}

// load restores the persisted snapshot. Must only run during construction.
func (c *Cache) load() {
	if c.store == nil {
		return
	}

	blob, ok, err := c.store.Load(c.storageKey)
	if err != nil {
		metrics.CachePersistErrors.WithLabelValues("load").Inc()
		c.logger.Warn("failed to load translation cache, starting empty",
			zap.String("storage_key", c.storageKey),
			zap.Error(err),
		)
		return
	}
	if !ok || len(blob) == 0 {
		return
	}

	var entries []KeyedEntry
	if err := json.Unmarshal(blob, &entries); err != nil {
		metrics.CachePersistErrors.WithLabelValues("decode").Inc()
		c.logger.Warn("discarding corrupt translation cache snapshot",
			zap.String("storage_key", c.storageKey),
			zap.Error(err),
		)
		return
	}

	c.insert(entries)
	metrics.CacheEntries.Set(float64(c.lru.Len()))
	c.logger.Debug("translation cache restored", zap.Int("entries", c.lru.Len()))
}

// persist writes the full snapshot to the store. Must be called with c.mu held.
func (c *Cache) persist() {
	metrics.CacheEntries.Set(float64(c.lru.Len()))

	if c.store == nil {
		return
	}

	blob, err := json.Marshal(c.snapshot())
	if err != nil {
		metrics.CachePersistErrors.WithLabelValues("save").Inc()
		c.logger.Warn("failed to encode translation cache", zap.Error(err))
		return
	}

	if err := c.store.Save(c.storageKey, blob); err != nil {
		metrics.CachePersistErrors.WithLabelValues("save").Inc()
		c.logger.Warn("failed to persist translation cache",
			zap.String("storage_key", c.storageKey),
			zap.Error(err),
		)
	}
}
