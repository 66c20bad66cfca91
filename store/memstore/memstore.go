// Package memstore provides a map-backed cache.Store, mainly for tests and
// ephemeral processes.
package memstore

import (
	"sync"

	"github.com/orbitsmeet/livetl/cache"
)

// Store keeps blobs in memory. The zero value is not usable; call New.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte

	// Injected failures, returned by the next matching call while set.
	LoadErr   error
	SaveErr   error
	RemoveErr error

	saves int
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Load implements cache.Store.
func (s *Store) Load(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LoadErr != nil {
		return nil, false, s.LoadErr
	}
	blob, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

// Save implements cache.Store.
func (s *Store) Save(key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.data[key] = append([]byte(nil), blob...)
	s.saves++
	return nil
}

// Remove implements cache.Store.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	delete(s.data, key)
	return nil
}

// Put seeds a raw blob, bypassing injected failures.
func (s *Store) Put(key string, blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), blob...)
}

// Saves returns how many successful saves have happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var _ cache.Store = (*Store)(nil)
