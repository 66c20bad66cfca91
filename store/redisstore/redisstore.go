// Package redisstore persists the translation cache snapshot in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orbitsmeet/livetl/cache"
)

// DefaultKeyPrefix is prepended to every storage key.
const DefaultKeyPrefix = "livetl:"

// DefaultTimeout bounds each Redis round trip.
const DefaultTimeout = 5 * time.Second

// Store is a Redis-backed cache.Store.
type Store struct {
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration
}

// Config holds configuration for the Redis store.
type Config struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379/0")
	KeyPrefix string        // Prefix for all keys (default: "livetl:")
	Timeout   time.Duration // Per-operation timeout (default: 5s)
}

// New connects to Redis and verifies the connection with a PING.
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	s := NewFromClient(redis.NewClient(opts), cfg.KeyPrefix)
	if cfg.Timeout > 0 {
		s.timeout = cfg.Timeout
	}

	if err := s.Ping(); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return s, nil
}

// NewFromClient creates a Store from an existing Redis client.
func NewFromClient(client *redis.Client, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		timeout:   DefaultTimeout,
	}
}

// Load implements cache.Store.
func (s *Store) Load(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	blob, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

// Save implements cache.Store. Entries expire inside the snapshot, so the
// Redis key itself never does.
func (s *Store) Save(key string, blob []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.client.Set(ctx, s.keyPrefix+key, blob, 0).Err()
}

// Remove implements cache.Store.
func (s *Store) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.client.Del(ctx, s.keyPrefix+key).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *Store) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.client.Ping(ctx).Err()
}

var _ cache.Store = (*Store)(nil)
