// Package cache provides the persistent LRU translation cache.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultStorageKey is the key the snapshot is persisted under.
const DefaultStorageKey = "orbits_translation_cache"

const (
	// DefaultMaxSize is the default entry capacity.
	DefaultMaxSize = 500
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = time.Hour
)

// Store is the key-value collaborator the cache persists its snapshot to.
type Store interface {
	// Load returns the blob stored under key. The bool is false when absent.
	Load(key string) ([]byte, bool, error)

	// Save replaces the blob stored under key.
	Save(key string, blob []byte) error

	// Remove deletes key. Removing an absent key is not an error. A removed
	// key loads as absent, which the cache treats as empty.
	Remove(key string) error
}

// Key builds the cache key for a language pair and source text. The text is
// lowercased and trimmed, so case and surrounding whitespace do not matter.
func Key(text, sourceLang, targetLang string) string {
	return sourceLang + ":" + targetLang + ":" + strings.ToLower(strings.TrimSpace(text))
}

// Entry is one memoized translation.
type Entry struct {
	Translation string
	CreatedAt   time.Time
	AccessCount int
}

// entryJSON is the persisted shape of an Entry; timestamps are Unix millis.
type entryJSON struct {
	Translation string `json:"translation"`
	Timestamp   int64  `json:"timestamp"`
	AccessCount int    `json:"accessCount"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Translation: e.Translation,
		Timestamp:   e.CreatedAt.UnixMilli(),
		AccessCount: e.AccessCount,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Translation = raw.Translation
	e.CreatedAt = time.UnixMilli(raw.Timestamp)
	e.AccessCount = raw.AccessCount
	return nil
}

// KeyedEntry is an Entry together with its cache key.
type KeyedEntry struct {
	Key   string
	Entry Entry
}

// MarshalJSON encodes the pair as a two-element array: ["key", {...}].
func (k KeyedEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{k.Key, k.Entry})
}

// UnmarshalJSON decodes a ["key", {...}] pair.
func (k *KeyedEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("cache entry: expected [key, entry] pair, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &k.Key); err != nil {
		return fmt.Errorf("cache entry key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &k.Entry); err != nil {
		return fmt.Errorf("cache entry %q: %w", k.Key, err)
	}
	return nil
}

// Stats describes the cache's current state.
type Stats struct {
	Size    int
	MaxSize int
	TTL     time.Duration
}
