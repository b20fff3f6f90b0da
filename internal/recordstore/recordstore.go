// Package recordstore persists named collections of records. Each collection
// is stored as one JSON array under its key and is always replaced whole.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned by a store whose backing medium is not configured.
	ErrUnavailable = errors.New("record store unavailable")
	// ErrCorrupt marks a stored value that is not a JSON array of records.
	ErrCorrupt = errors.New("stored collection is corrupt")
)

// Store is one backing medium. Get returns nil for a key that was never
// written. Set overwrites the whole value; there is no locking, so concurrent
// writers to one key race and the last write wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// Unavailable stands in for a remote medium that was not configured.
type Unavailable struct{}

func (Unavailable) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Set(_ context.Context, _ string, _ []byte) error {
	return ErrUnavailable
}

// Load reads a collection. A never-written key yields an empty slice.
func Load[T any](ctx context.Context, s Store, key string) ([]T, error) {
	records, _, err := Lookup[T](ctx, s, key)
	return records, err
}

// Lookup is Load that also reports whether the key has ever been written.
func Lookup[T any](ctx context.Context, s Store, key string) ([]T, bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	if raw == nil {
		return []T{}, false, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, true, nil
	}
	if raw[0] != '[' {
		return nil, true, fmt.Errorf("decode %s: %w", key, ErrCorrupt)
	}

	records := make([]T, 0)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w: %v", key, ErrCorrupt, err)
	}
	return records, true, nil
}

// Save replaces a collection with records.
func Save[T any](ctx context.Context, s Store, key string, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
