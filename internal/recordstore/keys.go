package recordstore

import "context"

const (
	CustomersKey = "customers"
	PurchasesKey = "purchases"
	OrdersKey    = "orders"
)

func ProductsKey(storeID string) string {
	return "products:" + storeID
}

// OrderKey holds a single order for point lookups.
func OrderKey(orderID string) string {
	return "order:" + orderID
}

// OrdersDayKey holds the orders created on one calendar day (YYYY-MM-DD).
func OrdersDayKey(day string) string {
	return "orders:day:" + day
}

type prefixed struct {
	store  Store
	prefix string
}

// Prefixed namespaces every key of s, e.g. "pos:" + "orders".
func Prefixed(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return prefixed{store: s, prefix: prefix}
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key string, payload []byte) error {
	return p.store.Set(ctx, p.prefix+key, payload)
}
