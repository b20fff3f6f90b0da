package entity

import (
	"storepos/backend/internal/domain"
	"storepos/backend/internal/recordstore"
)

type (
	ProductService  = Service[domain.Product, domain.ProductPatch]
	CustomerService = Service[domain.Customer, domain.CustomerPatch]
	PurchaseService = Service[domain.Purchase, domain.PurchasePatch]
)

func NewProducts(store recordstore.Store, opts Options) *Collection[domain.Product, domain.ProductPatch] {
	return NewCollection(store, Spec[domain.Product, domain.ProductPatch]{
		Name:     "product",
		IDPrefix: "prd",
		Key:      recordstore.ProductsKey,
		ID:       func(p *domain.Product) *string { return &p.ID },
		Prepare: func(scope string, p *domain.Product, clock Clock) {
			if scope != "" {
				p.StoreID = scope
			}
			now := clock.Now()
			p.AddedAt = now
			p.UpdatedAt = now
		},
		Merge: (*domain.Product).Apply,
	}, opts)
}

func NewCustomers(store recordstore.Store, opts Options) *Collection[domain.Customer, domain.CustomerPatch] {
	return NewCollection(store, Spec[domain.Customer, domain.CustomerPatch]{
		Name:     "customer",
		IDPrefix: "cus",
		Key:      func(string) string { return recordstore.CustomersKey },
		ID:       func(c *domain.Customer) *string { return &c.ID },
		Prepare: func(_ string, c *domain.Customer, clock Clock) {
			c.TotalPurchases = 0
			if c.JoinDate == "" {
				c.JoinDate = clock.Stamp()
			}
		},
		Merge: (*domain.Customer).Apply,
	}, opts)
}

func NewPurchases(store recordstore.Store, opts Options) *Collection[domain.Purchase, domain.PurchasePatch] {
	return NewCollection(store, Spec[domain.Purchase, domain.PurchasePatch]{
		Name:     "purchase",
		IDPrefix: "pur",
		Key:      func(string) string { return recordstore.PurchasesKey },
		ID:       func(p *domain.Purchase) *string { return &p.ID },
		Prepare: func(_ string, p *domain.Purchase, clock Clock) {
			if p.TotalAmount == 0 {
				_, p.TotalAmount = domain.PriceItems([]domain.OrderItem{{Quantity: p.Quantity, Price: p.Price}})
			}
			if p.Date == "" {
				p.Date = clock.Stamp()
			}
		},
		Merge: (*domain.Purchase).Apply,
	}, opts)
}
