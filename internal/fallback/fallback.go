// Package fallback pairs a remote and a local entity service behind one
// contract. Every call goes to remote first; on any failure the same call is
// replayed once against local and local's outcome is returned. Nothing is
// remembered between calls, and the two copies are never synchronized.
package fallback

import (
	"context"
	"log"
	"time"

	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
	"storepos/backend/internal/recordstore"
)

type Options struct {
	// RemoteTimeout bounds each remote attempt; zero leaves it to the transport.
	RemoteTimeout time.Duration
	// Name tags log lines, e.g. "customer".
	Name string
	// Retryable reports whether a remote error should be replayed locally.
	// Nil falls back on every error; otherwise a false answer is returned
	// to the caller as is.
	Retryable func(error) bool
}

type Coordinator[T any, P any] struct {
	remote entity.Service[T, P]
	local  entity.Service[T, P]
	opts   Options
}

var _ entity.Service[domain.Customer, domain.CustomerPatch] = (*Coordinator[domain.Customer, domain.CustomerPatch])(nil)

// NewCoordinator accepts a nil remote, which behaves as a remote that is
// always unavailable.
func NewCoordinator[T any, P any](remote, local entity.Service[T, P], opts Options) *Coordinator[T, P] {
	if remote == nil {
		remote = unavailable[T, P]{}
	}
	if opts.Name == "" {
		opts.Name = "record"
	}
	return &Coordinator[T, P]{remote: remote, local: local, opts: opts}
}

func (c *Coordinator[T, P]) GetAll(ctx context.Context, scope string) ([]T, error) {
	return attempt(ctx, c.opts, "list",
		func(ctx context.Context) ([]T, error) { return c.remote.GetAll(ctx, scope) },
		func(ctx context.Context) ([]T, error) { return c.local.GetAll(ctx, scope) },
	)
}

func (c *Coordinator[T, P]) Add(ctx context.Context, scope string, record T) (T, error) {
	return attempt(ctx, c.opts, "add",
		func(ctx context.Context) (T, error) { return c.remote.Add(ctx, scope, record) },
		func(ctx context.Context) (T, error) { return c.local.Add(ctx, scope, record) },
	)
}

func (c *Coordinator[T, P]) Update(ctx context.Context, scope string, id string, patch P) error {
	_, err := attempt(ctx, c.opts, "update",
		func(ctx context.Context) (struct{}, error) { return struct{}{}, c.remote.Update(ctx, scope, id, patch) },
		func(ctx context.Context) (struct{}, error) { return struct{}{}, c.local.Update(ctx, scope, id, patch) },
	)
	return err
}

func (c *Coordinator[T, P]) Delete(ctx context.Context, scope string, id string) error {
	_, err := attempt(ctx, c.opts, "delete",
		func(ctx context.Context) (struct{}, error) { return struct{}{}, c.remote.Delete(ctx, scope, id) },
		func(ctx context.Context) (struct{}, error) { return struct{}{}, c.local.Delete(ctx, scope, id) },
	)
	return err
}

// OrderCoordinator applies the same policy to the order extension.
type OrderCoordinator struct {
	*Coordinator[domain.Order, domain.OrderPatch]
	remote entity.OrderService
	local  entity.OrderService
}

var _ entity.OrderService = (*OrderCoordinator)(nil)

func NewOrderCoordinator(remote, local entity.OrderService, opts Options) *OrderCoordinator {
	if remote == nil {
		remote = unavailableOrders{}
	}
	if opts.Name == "" {
		opts.Name = "order"
	}
	return &OrderCoordinator{
		Coordinator: NewCoordinator[domain.Order, domain.OrderPatch](remote, local, opts),
		remote:      remote,
		local:       local,
	}
}

type lookup struct {
	order domain.Order
	found bool
}

func (c *OrderCoordinator) Get(ctx context.Context, id string) (domain.Order, bool, error) {
	got, err := attempt(ctx, c.opts, "get",
		func(ctx context.Context) (lookup, error) {
			order, found, err := c.remote.Get(ctx, id)
			return lookup{order, found}, err
		},
		func(ctx context.Context) (lookup, error) {
			order, found, err := c.local.Get(ctx, id)
			return lookup{order, found}, err
		},
	)
	return got.order, got.found, err
}

func (c *OrderCoordinator) GetDailyRevenue(ctx context.Context, date string) (float64, error) {
	return attempt(ctx, c.opts, "daily revenue",
		func(ctx context.Context) (float64, error) { return c.remote.GetDailyRevenue(ctx, date) },
		func(ctx context.Context) (float64, error) { return c.local.GetDailyRevenue(ctx, date) },
	)
}

func (c *OrderCoordinator) AddPayment(ctx context.Context, id string, entry domain.PaymentEntry) (domain.Order, error) {
	return attempt(ctx, c.opts, "add payment",
		func(ctx context.Context) (domain.Order, error) { return c.remote.AddPayment(ctx, id, entry) },
		func(ctx context.Context) (domain.Order, error) { return c.local.AddPayment(ctx, id, entry) },
	)
}

// attempt runs remote, then local exactly once if remote failed.
func attempt[R any](ctx context.Context, opts Options, op string, remote, local func(context.Context) (R, error)) (R, error) {
	remoteCtx := ctx
	if opts.RemoteTimeout > 0 {
		var cancel context.CancelFunc
		remoteCtx, cancel = context.WithTimeout(ctx, opts.RemoteTimeout)
		defer cancel()
	}

	result, err := remote(remoteCtx)
	if err == nil {
		return result, nil
	}
	if opts.Retryable != nil && !opts.Retryable(err) {
		return result, err
	}
	log.Printf("[fallback] WARN: remote %s %s failed, using local: %v", op, opts.Name, err)
	return local(ctx)
}

type unavailable[T any, P any] struct{}

func (unavailable[T, P]) GetAll(context.Context, string) ([]T, error) {
	return nil, recordstore.ErrUnavailable
}

func (unavailable[T, P]) Add(context.Context, string, T) (T, error) {
	var zero T
	return zero, recordstore.ErrUnavailable
}

func (unavailable[T, P]) Update(context.Context, string, string, P) error {
	return recordstore.ErrUnavailable
}

func (unavailable[T, P]) Delete(context.Context, string, string) error {
	return recordstore.ErrUnavailable
}

type unavailableOrders struct {
	unavailable[domain.Order, domain.OrderPatch]
}

func (unavailableOrders) Get(context.Context, string) (domain.Order, bool, error) {
	return domain.Order{}, false, recordstore.ErrUnavailable
}

func (unavailableOrders) GetDailyRevenue(context.Context, string) (float64, error) {
	return 0, recordstore.ErrUnavailable
}

func (unavailableOrders) AddPayment(context.Context, string, domain.PaymentEntry) (domain.Order, error) {
	return domain.Order{}, recordstore.ErrUnavailable
}
