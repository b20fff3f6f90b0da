// Package memory is an in-process record store for tests and ephemeral runs.
package memory

import (
	"context"
	"slices"
	"sync"
)

type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	err    error
	gets   int
	sets   int
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	value, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(value), nil
}

func (s *Store) Set(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets++
	if s.err != nil {
		return s.err
	}
	s.values[key] = slices.Clone(payload)
	return nil
}

// SetError makes every following Get and Set fail with err; nil restores
// normal operation.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Keys lists stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Calls reports how many Get and Set calls the store has served.
func (s *Store) Calls() (gets int, sets int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gets, s.sets
}
