package entity

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"storepos/backend/internal/domain"
	"storepos/backend/internal/recordstore"
)

// OrderService extends the CRUD contract with point lookups, payments and
// daily revenue.
type OrderService interface {
	Service[domain.Order, domain.OrderPatch]
	Get(ctx context.Context, id string) (domain.Order, bool, error)
	GetDailyRevenue(ctx context.Context, date string) (float64, error)
	AddPayment(ctx context.Context, id string, entry domain.PaymentEntry) (domain.Order, error)
}

// Orders keeps the "orders" collection authoritative and maintains two
// derived keys on every write: "order:<id>" and "orders:day:<date>". Index
// writes are best effort; a failed index write is only logged.
type Orders struct {
	*Collection[domain.Order, domain.OrderPatch]
}

var _ OrderService = (*Orders)(nil)

func NewOrders(store recordstore.Store, opts Options) *Orders {
	return &Orders{Collection: NewCollection(store, Spec[domain.Order, domain.OrderPatch]{
		Name:     "order",
		IDPrefix: "ord",
		Key:      func(string) string { return recordstore.OrdersKey },
		ID:       func(o *domain.Order) *string { return &o.ID },
		Prepare: func(_ string, o *domain.Order, clock Clock) {
			o.Items, o.TotalAmount = domain.PriceItems(o.Items)
			if o.Status == "" {
				o.Status = domain.OrderStatusPending
			}
			if o.Date == "" {
				o.Date = clock.Stamp()
			}
			o.CreatedAt = clock.Now()
			o.UpdatedAt = o.CreatedAt
			if o.Payment != nil {
				o.Settle()
			}
		},
		Merge: (*domain.Order).Apply,
	}, opts)}
}

func (o *Orders) Add(ctx context.Context, scope string, order domain.Order) (domain.Order, error) {
	created, err := o.Collection.Add(ctx, scope, order)
	if err != nil {
		return domain.Order{}, err
	}
	o.index(ctx, created)
	return created, nil
}

func (o *Orders) Update(ctx context.Context, scope string, id string, patch domain.OrderPatch) error {
	updated, found, err := o.Collection.update(ctx, scope, id, patch)
	if err != nil || !found {
		return err
	}
	o.index(ctx, updated)
	return nil
}

func (o *Orders) Delete(ctx context.Context, scope string, id string) error {
	removed, found, err := o.Collection.delete(ctx, scope, id)
	if err != nil || !found {
		return err
	}
	o.unindex(ctx, removed)
	return nil
}

// Get reads the point-lookup key and falls back to scanning the collection
// for orders written before the key existed.
func (o *Orders) Get(ctx context.Context, id string) (domain.Order, bool, error) {
	point, found, err := recordstore.Lookup[domain.Order](ctx, o.store, recordstore.OrderKey(id))
	if err != nil {
		return domain.Order{}, false, err
	}
	if found && len(point) > 0 && point[0].ID == id {
		return point[0], true, nil
	}

	orders, err := o.load(ctx, "")
	if err != nil {
		return domain.Order{}, false, err
	}
	if idx := o.indexOf(orders, id); idx >= 0 {
		return orders[idx], true, nil
	}
	return domain.Order{}, false, nil
}

// GetDailyRevenue sums totalAmount of completed orders dated on date
// (YYYY-MM-DD). The orders collection is authoritative; the day index answers
// only when the collection has never been written.
func (o *Orders) GetDailyRevenue(ctx context.Context, date string) (float64, error) {
	orders, found, err := recordstore.Lookup[domain.Order](ctx, o.store, recordstore.OrdersKey)
	if err != nil {
		return 0, err
	}
	if !found {
		if orders, err = recordstore.Load[domain.Order](ctx, o.store, recordstore.OrdersDayKey(date)); err != nil {
			return 0, err
		}
	}

	revenue := decimal.Zero
	for _, order := range orders {
		if order.Status != domain.OrderStatusCompleted || o.clock.Day(order.Date) != date {
			continue
		}
		revenue = revenue.Add(decimal.NewFromFloat(order.TotalAmount))
	}
	return revenue.InexactFloat64(), nil
}

// AddPayment appends a payment entry and recomputes the payment summary.
func (o *Orders) AddPayment(ctx context.Context, id string, entry domain.PaymentEntry) (domain.Order, error) {
	orders, err := o.load(ctx, "")
	if err != nil {
		return domain.Order{}, fmt.Errorf("add payment %s: %w", id, err)
	}
	idx := o.indexOf(orders, id)
	if idx < 0 {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}

	if entry.ID == "" {
		entry.ID = o.newID("pay")
	}
	if entry.Date == "" {
		entry.Date = o.clock.Stamp()
	}

	order := &orders[idx]
	if order.Payment == nil {
		order.Payment = &domain.OrderPayment{Payments: []domain.PaymentEntry{}}
	}
	order.Payment.Payments = append(order.Payment.Payments, entry)
	order.Settle()
	order.UpdatedAt = o.clock.Now()

	if err := o.save(ctx, "", orders); err != nil {
		return domain.Order{}, fmt.Errorf("%w: add payment %s: %w", ErrSaveFailed, id, err)
	}
	o.index(ctx, *order)
	return *order, nil
}

func (o *Orders) index(ctx context.Context, order domain.Order) {
	if err := recordstore.Save(ctx, o.store, recordstore.OrderKey(order.ID), []domain.Order{order}); err != nil {
		log.Printf("[entity] WARN: write order key failed id=%s: %v", order.ID, err)
	}
	o.updateDay(ctx, order.Date, func(day []domain.Order) []domain.Order {
		for i := range day {
			if day[i].ID == order.ID {
				day[i] = order
				return day
			}
		}
		return append(day, order)
	})
}

func (o *Orders) unindex(ctx context.Context, order domain.Order) {
	if err := recordstore.Save[domain.Order](ctx, o.store, recordstore.OrderKey(order.ID), nil); err != nil {
		log.Printf("[entity] WARN: clear order key failed id=%s: %v", order.ID, err)
	}
	o.updateDay(ctx, order.Date, func(day []domain.Order) []domain.Order {
		kept := day[:0]
		for _, existing := range day {
			if existing.ID != order.ID {
				kept = append(kept, existing)
			}
		}
		return kept
	})
}

func (o *Orders) updateDay(ctx context.Context, date string, change func([]domain.Order) []domain.Order) {
	key := recordstore.OrdersDayKey(o.clock.Day(date))
	day, err := recordstore.Load[domain.Order](ctx, o.store, key)
	if err != nil {
		log.Printf("[entity] WARN: read day index failed key=%s: %v", key, err)
		return
	}
	if err := recordstore.Save(ctx, o.store, key, change(day)); err != nil {
		log.Printf("[entity] WARN: write day index failed key=%s: %v", key, err)
	}
}
