// Package memory is an in-process blob store, used in tests and as the
// default backend when no database is configured. Optionally seeded from a
// JSON file on disk.
package memory

import (
	"context"
	"os"
	"sync"

	"bilancio/storage"
)

type Store struct {
	mu   sync.Mutex
	blob []byte
}

func New() *Store {
	return &Store{}
}

// NewFromFile seeds the store from a JSON snapshot on disk. A missing or
// unreadable file yields an empty store.
func NewFromFile(path string) *Store {
	s := &Store{}
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		s.blob = data
	}
	return s
}

// Save implements storage.BlobStore.
func (s *Store) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	return nil
}

// Load implements storage.BlobStore.
func (s *Store) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), s.blob...), nil
}

func (s *Store) Close() error { return nil }
