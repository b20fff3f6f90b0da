// Package entity implements CRUD over record store collections. Every
// operation re-reads the whole collection, changes it in memory and writes it
// back; nothing is cached between calls.
package entity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"storepos/backend/internal/recordstore"
	"storepos/backend/internal/xid"
)

var (
	ErrSaveFailed = errors.New("save failed")
	ErrNotFound   = errors.New("not found")
)

// Service is the CRUD contract shared by the remote-backed, local-backed and
// HTTP-backed implementations. scope is the store id for products and is
// ignored by the other entities.
type Service[T any, P any] interface {
	GetAll(ctx context.Context, scope string) ([]T, error)
	Add(ctx context.Context, scope string, entity T) (T, error)
	Update(ctx context.Context, scope string, id string, patch P) error
	Delete(ctx context.Context, scope string, id string) error
}

// Spec describes how one entity type lives in a collection.
type Spec[T any, P any] struct {
	Name     string
	IDPrefix string
	Key      func(scope string) string
	ID       func(*T) *string
	// Prepare fills computed fields of a new record.
	Prepare func(scope string, entity *T, clock Clock)
	Merge   func(*T, P)
}

type Options struct {
	Now      func() time.Time
	Location *time.Location
	NewID    func(prefix string) string
}

// Clock stamps dates in the business time zone.
type Clock struct {
	now      func() time.Time
	location *time.Location
}

func NewClock(now func() time.Time, location *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return Clock{now: now, location: location}
}

func (c Clock) Now() time.Time {
	return c.now().In(c.location)
}

// Stamp renders the current time as RFC 3339; the first ten characters are
// the calendar day.
func (c Clock) Stamp() string {
	return c.Now().Format(time.RFC3339)
}

// Day returns the calendar day (YYYY-MM-DD) of a stamped date. Values that are
// not RFC 3339 fall back to their first ten characters.
func (c Clock) Day(date string) string {
	if parsed, err := time.Parse(time.RFC3339, date); err == nil {
		return parsed.In(c.location).Format(time.DateOnly)
	}
	if len(date) >= len(time.DateOnly) {
		return date[:len(time.DateOnly)]
	}
	return date
}

type Collection[T any, P any] struct {
	store recordstore.Store
	spec  Spec[T, P]
	clock Clock
	newID func(prefix string) string
}

func NewCollection[T any, P any](store recordstore.Store, spec Spec[T, P], opts Options) *Collection[T, P] {
	if opts.NewID == nil {
		opts.NewID = xid.New
	}
	return &Collection[T, P]{
		store: store,
		spec:  spec,
		clock: NewClock(opts.Now, opts.Location),
		newID: opts.NewID,
	}
}

// GetAll never fails: a read error is logged and reported as an empty list.
func (c *Collection[T, P]) GetAll(ctx context.Context, scope string) ([]T, error) {
	records, err := c.load(ctx, scope)
	if err != nil {
		log.Printf("[entity] WARN: list %s failed key=%s: %v", c.spec.Name, c.spec.Key(scope), err)
		return []T{}, nil
	}
	return records, nil
}

// Add assigns a fresh id, appends the record and writes the collection back.
// Uniqueness of the id is not checked against existing records.
func (c *Collection[T, P]) Add(ctx context.Context, scope string, entity T) (T, error) {
	var zero T

	records, err := c.load(ctx, scope)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSaveFailed, c.spec.Name, err)
	}

	*c.spec.ID(&entity) = c.newID(c.spec.IDPrefix)
	if c.spec.Prepare != nil {
		c.spec.Prepare(scope, &entity, c.clock)
	}

	records = append(records, entity)
	if err := c.save(ctx, scope, records); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSaveFailed, c.spec.Name, err)
	}
	return entity, nil
}

// Update shallow-merges patch into the first record with id. An unknown id is
// a silent no-op.
func (c *Collection[T, P]) Update(ctx context.Context, scope string, id string, patch P) error {
	_, _, err := c.update(ctx, scope, id, patch)
	return err
}

func (c *Collection[T, P]) update(ctx context.Context, scope string, id string, patch P) (T, bool, error) {
	var zero T

	records, err := c.load(ctx, scope)
	if err != nil {
		return zero, false, fmt.Errorf("update %s %s: %w", c.spec.Name, id, err)
	}

	idx := c.indexOf(records, id)
	if idx < 0 {
		return zero, false, nil
	}
	c.spec.Merge(&records[idx], patch)

	if err := c.save(ctx, scope, records); err != nil {
		return zero, false, fmt.Errorf("update %s %s: %w", c.spec.Name, id, err)
	}
	return records[idx], true, nil
}

// Delete removes the record with id. An unknown id is a silent no-op, so
// deleting twice is safe.
func (c *Collection[T, P]) Delete(ctx context.Context, scope string, id string) error {
	_, _, err := c.delete(ctx, scope, id)
	return err
}

func (c *Collection[T, P]) delete(ctx context.Context, scope string, id string) (T, bool, error) {
	var zero T

	records, err := c.load(ctx, scope)
	if err != nil {
		return zero, false, fmt.Errorf("delete %s %s: %w", c.spec.Name, id, err)
	}

	idx := c.indexOf(records, id)
	if idx < 0 {
		return zero, false, nil
	}
	removed := records[idx]
	kept := make([]T, 0, len(records)-1)
	for i := range records {
		if *c.spec.ID(&records[i]) != id {
			kept = append(kept, records[i])
		}
	}

	if err := c.save(ctx, scope, kept); err != nil {
		return zero, false, fmt.Errorf("delete %s %s: %w", c.spec.Name, id, err)
	}
	return removed, true, nil
}

// load is the strict read used by writes; a failed read must not turn into
// an empty collection that then overwrites the stored one.
func (c *Collection[T, P]) load(ctx context.Context, scope string) ([]T, error) {
	return recordstore.Load[T](ctx, c.store, c.spec.Key(scope))
}

func (c *Collection[T, P]) save(ctx context.Context, scope string, records []T) error {
	return recordstore.Save(ctx, c.store, c.spec.Key(scope), records)
}

func (c *Collection[T, P]) indexOf(records []T, id string) int {
	for i := range records {
		if *c.spec.ID(&records[i]) == id {
			return i
		}
	}
	return -1
}
