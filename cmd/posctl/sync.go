package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
)

const (
	stateLocalOnly  = "local-only"
	stateRemoteOnly = "remote-only"
	stateChanged    = "changed"
	statePushed     = "pushed"
	stateFailed     = "push-failed"
)

type divergence struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	State      string `json:"state"`
	// NewID is the id the server assigned to a pushed record.
	NewID string `json:"newId,omitempty"`
	Error string `json:"error,omitempty"`
}

type syncer interface {
	diff(ctx context.Context) ([]divergence, error)
	push(ctx context.Context) ([]divergence, error)
}

// pair compares one collection on the server with its local copy. Both sides
// are read directly, bypassing the fallback coordinators.
type pair[T any, P any] struct {
	name   string
	scope  string
	remote entity.Service[T, P]
	local  entity.Service[T, P]
	id     func(T) string
	// replay sends a local-only record to the server and returns the stored copy.
	replay func(ctx context.Context, record T) (T, error)
	// pushed sees every record after the server accepted it.
	pushed func(oldID string, created T)
}

// syncers run in order: customers are pushed before purchases so that a
// purchase can be sent with the id the server gave its customer.
func (e *entities) syncers(storeID string) []syncer {
	orders := e.remote.Orders()
	purchases := e.remote.Purchases()
	customerIDs := map[string]string{}
	return []syncer{
		pair[domain.Product, domain.ProductPatch]{
			name:   "products:" + storeID,
			scope:  storeID,
			remote: e.remote.Products(),
			local:  e.local.products,
			id:     func(p domain.Product) string { return p.ID },
		},
		pair[domain.Customer, domain.CustomerPatch]{
			name:   "customers",
			remote: e.remote.Customers(),
			local:  e.local.customers,
			id:     func(c domain.Customer) string { return c.ID },
			pushed: func(oldID string, created domain.Customer) { customerIDs[oldID] = created.ID },
		},
		pair[domain.Purchase, domain.PurchasePatch]{
			name:   "purchases",
			remote: purchases,
			local:  e.local.purchases,
			id:     func(p domain.Purchase) string { return p.ID },
			replay: func(ctx context.Context, purchase domain.Purchase) (domain.Purchase, error) {
				if id, ok := customerIDs[purchase.CustomerID]; ok {
					purchase.CustomerID = id
				}
				return purchases.Add(ctx, "", purchase)
			},
		},
		pair[domain.Order, domain.OrderPatch]{
			name:   "orders",
			remote: orders,
			local:  e.local.orders,
			id:     func(o domain.Order) string { return o.ID },
			replay: func(ctx context.Context, order domain.Order) (domain.Order, error) {
				created, err := orders.Add(ctx, "", order)
				if err != nil || order.Payment == nil {
					return created, err
				}
				for _, entry := range order.Payment.Payments {
					if created, err = orders.AddPayment(ctx, created.ID, entry); err != nil {
						return created, fmt.Errorf("replay payment %s: %w", entry.ID, err)
					}
				}
				return created, nil
			},
		},
	}
}

func (p pair[T, P]) diff(ctx context.Context) ([]divergence, error) {
	remote, local, err := p.read(ctx)
	if err != nil {
		return nil, err
	}

	var out []divergence
	for id, record := range local {
		other, ok := remote[id]
		switch {
		case !ok:
			out = append(out, divergence{Collection: p.name, ID: id, State: stateLocalOnly})
		case !sameJSON(record, other):
			out = append(out, divergence{Collection: p.name, ID: id, State: stateChanged})
		}
	}
	for id := range remote {
		if _, ok := local[id]; !ok {
			out = append(out, divergence{Collection: p.name, ID: id, State: stateRemoteOnly})
		}
	}
	sortDivergences(out)
	return out, nil
}

func (p pair[T, P]) push(ctx context.Context) ([]divergence, error) {
	remote, local, err := p.read(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(local))
	for id := range local {
		if _, ok := remote[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var (
		out  []divergence
		errs []error
	)
	for _, id := range ids {
		created, err := p.send(ctx, local[id])
		if err != nil {
			out = append(out, divergence{Collection: p.name, ID: id, State: stateFailed, Error: err.Error()})
			errs = append(errs, fmt.Errorf("%s %s: %w", p.name, id, err))
			continue
		}
		if err := p.local.Delete(ctx, p.scope, id); err != nil {
			errs = append(errs, fmt.Errorf("%s %s pushed but local copy kept: %w", p.name, id, err))
		}
		if p.pushed != nil {
			p.pushed(id, created)
		}
		out = append(out, divergence{Collection: p.name, ID: id, State: statePushed, NewID: p.id(created)})
	}
	return out, errors.Join(errs...)
}

func (p pair[T, P]) send(ctx context.Context, record T) (T, error) {
	if p.replay != nil {
		return p.replay(ctx, record)
	}
	return p.remote.Add(ctx, p.scope, record)
}

// read fails when the server cannot answer; a reconciliation over a
// fallback read would compare the local copy with itself.
func (p pair[T, P]) read(ctx context.Context) (map[string]T, map[string]T, error) {
	remoteRecords, err := p.remote.GetAll(ctx, p.scope)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s from server: %w", p.name, err)
	}
	localRecords, err := p.local.GetAll(ctx, p.scope)
	if err != nil {
		return nil, nil, fmt.Errorf("read local %s: %w", p.name, err)
	}
	return p.byID(remoteRecords), p.byID(localRecords), nil
}

func (p pair[T, P]) byID(records []T) map[string]T {
	out := make(map[string]T, len(records))
	for _, record := range records {
		out[p.id(record)] = record
	}
	return out
}

func sameJSON(a any, b any) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func sortDivergences(items []divergence) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Collection != items[j].Collection {
			return items[i].Collection < items[j].Collection
		}
		return items[i].ID < items[j].ID
	})
}
