package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"storepos/backend/internal/domain"
)

const topProductsLimit = 10

type storeTally struct {
	orders  int
	revenue decimal.Decimal
}

type productTally struct {
	name     string
	quantity int
	revenue  decimal.Decimal
}

// SalesReport aggregates orders dated within [from, to] (inclusive,
// YYYY-MM-DD). Revenue and product sales count completed orders only;
// payments and outstanding balances skip cancelled orders. An empty storeID
// covers every store.
func (s *Service) SalesReport(ctx context.Context, storeID string, from string, to string) (domain.SalesReport, error) {
	fromDay, err := s.parseDay("from", from)
	if err != nil {
		return domain.SalesReport{}, err
	}
	toDay, err := s.parseDay("to", to)
	if err != nil {
		return domain.SalesReport{}, err
	}
	if toDay < fromDay {
		return domain.SalesReport{}, invalid("to", "must not be before from")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID != "" {
		if err := ValidateStoreID(storeID); err != nil {
			return domain.SalesReport{}, err
		}
	}

	orders, err := s.orders.GetAll(ctx, "")
	if err != nil {
		return domain.SalesReport{}, err
	}

	report := domain.SalesReport{
		StoreID:     storeID,
		From:        fromDay,
		To:          toDay,
		ByStore:     []domain.StoreRevenue{},
		TopProducts: []domain.ProductSales{},
	}
	revenue, collected, outstanding := decimal.Zero, decimal.Zero, decimal.Zero
	stores := make(map[string]*storeTally)
	products := make(map[string]*productTally)

	for _, order := range orders {
		day := s.clock.Day(order.Date)
		if day < fromDay || day > toDay {
			continue
		}
		if storeID != "" && order.StoreID != storeID {
			continue
		}

		report.Orders++
		tally, ok := stores[order.StoreID]
		if !ok {
			tally = &storeTally{revenue: decimal.Zero}
			stores[order.StoreID] = tally
		}
		tally.orders++

		switch order.Status {
		case domain.OrderStatusCancelled:
			report.Cancelled++
			continue
		case domain.OrderStatusCompleted:
			report.Completed++
			total := decimal.NewFromFloat(order.TotalAmount)
			revenue = revenue.Add(total)
			tally.revenue = tally.revenue.Add(total)
			for _, item := range order.Items {
				sold, ok := products[item.ProductID]
				if !ok {
					sold = &productTally{revenue: decimal.Zero}
					products[item.ProductID] = sold
				}
				if sold.name == "" {
					sold.name = item.Name
				}
				sold.quantity += item.Quantity
				sold.revenue = sold.revenue.Add(decimal.NewFromFloat(item.Total))
			}
		default:
			report.Pending++
		}

		if order.Payment != nil {
			collected = collected.Add(decimal.NewFromFloat(order.Payment.TotalPaid))
			outstanding = outstanding.Add(decimal.NewFromFloat(order.Payment.RemainingAmount))
		} else {
			outstanding = outstanding.Add(decimal.NewFromFloat(order.TotalAmount))
		}
	}

	report.Revenue = revenue.InexactFloat64()
	report.PaymentsCollected = collected.InexactFloat64()
	report.Outstanding = outstanding.InexactFloat64()

	for id, tally := range stores {
		report.ByStore = append(report.ByStore, domain.StoreRevenue{
			StoreID: id,
			Orders:  tally.orders,
			Revenue: tally.revenue.InexactFloat64(),
		})
	}
	sort.Slice(report.ByStore, func(i, j int) bool {
		return report.ByStore[i].StoreID < report.ByStore[j].StoreID
	})

	for id, sold := range products {
		report.TopProducts = append(report.TopProducts, domain.ProductSales{
			ProductID: id,
			Name:      sold.name,
			Quantity:  sold.quantity,
			Revenue:   sold.revenue.InexactFloat64(),
		})
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.ProductID < b.ProductID
	})
	if len(report.TopProducts) > topProductsLimit {
		report.TopProducts = report.TopProducts[:topProductsLimit]
	}

	return report, nil
}
