package store

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when a key holds no value.
	ErrNotFound = errors.New("preference not set")
)

// Preferences is a string-keyed, string-valued preference store.
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Edit runs fn against the current values of keys and writes back what it returns
	// in one step. A key missing from the returned map is left untouched; an empty
	// value deletes the key.
	Edit(ctx context.Context, keys []string, fn func(current map[string]string) (map[string]string, error)) error
}

// MemoryStore is a concurrency-safe in-memory Preferences implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *MemoryStore) Edit(_ context.Context, keys []string, fn func(map[string]string) (map[string]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			current[k] = v
		}
	}

	updated, err := fn(current)
	if err != nil {
		return err
	}
	for k, v := range updated {
		if v == "" {
			delete(s.data, k)
			continue
		}
		s.data[k] = v
	}
	return nil
}
