package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"storepos/backend/internal/domain"
)

// ListOrders filters by store and status when they are set.
func (s *Service) ListOrders(ctx context.Context, storeID string, status string) ([]domain.Order, error) {
	storeID = strings.TrimSpace(storeID)
	status = strings.TrimSpace(status)
	if storeID != "" {
		if err := ValidateStoreID(storeID); err != nil {
			return nil, err
		}
	}
	if status != "" && !domain.IsOrderStatus(status) {
		return nil, invalid("status", "must be pending, completed or cancelled")
	}

	orders, err := s.orders.GetAll(ctx, "")
	if err != nil {
		return nil, err
	}
	if storeID == "" && status == "" {
		return orders, nil
	}
	filtered := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if storeID != "" && order.StoreID != storeID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		filtered = append(filtered, order)
	}
	return filtered, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	id, err := requireID(id)
	if err != nil {
		return domain.Order{}, err
	}
	order, found, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !found {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return order, nil
}

// CreateOrder checks stock of every known product in the order's store, stores
// the order and then takes the ordered quantities out of stock. Items whose
// product id is not in the store are accepted without stock moves.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	storeID, err := s.resolveStoreID(req.StoreID)
	if err != nil {
		return domain.Order{}, err
	}

	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		return domain.Order{}, invalid("customerName", "is required")
	}
	status := defaultString(strings.TrimSpace(req.Status), domain.OrderStatusPending)
	if !domain.IsOrderStatus(status) {
		return domain.Order{}, invalid("status", "must be pending, completed or cancelled")
	}
	if status == domain.OrderStatusCancelled {
		return domain.Order{}, invalid("status", "a new order cannot be cancelled")
	}

	items, err := normalizeItems(req.Items)
	if err != nil {
		return domain.Order{}, err
	}

	products, err := s.products.GetAll(ctx, storeID)
	if err != nil {
		return domain.Order{}, err
	}
	for i := range items {
		if product, ok := findProduct(products, items[i].ProductID); ok && items[i].Name == "" {
			items[i].Name = product.Name
		}
	}

	deltas := make(map[string]int)
	for _, item := range items {
		deltas[item.ProductID] -= item.Quantity
	}
	plan, err := planStock(products, deltas)
	if err != nil {
		return domain.Order{}, err
	}

	created, err := s.orders.Add(ctx, "", domain.Order{
		CustomerName: customerName,
		Items:        items,
		StoreID:      storeID,
		Status:       status,
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.applyStock(ctx, storeID, plan)
	s.logAction(ctx, "order_create", fmt.Sprintf("order=%s store=%s total=%.2f", created.ID, storeID, created.TotalAmount))
	return created, nil
}

// UpdateOrder edits customer name, status or items. Cancelling returns the
// order's items to stock; editing items moves the difference. A missing id is
// not an error.
func (s *Service) UpdateOrder(ctx context.Context, id string, req domain.OrderUpdateRequest) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}

	patch := domain.OrderPatch{}
	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return invalid("customerName", "must not be empty")
		}
		patch.CustomerName = &name
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if !domain.IsOrderStatus(status) {
			return invalid("status", "must be pending, completed or cancelled")
		}
		patch.Status = &status
	}
	var items []domain.OrderItem
	if req.Items != nil {
		if items, err = normalizeItems(req.Items); err != nil {
			return err
		}
	}

	existing, found, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	wasCancelled := existing.Status == domain.OrderStatusCancelled
	cancelling := !wasCancelled && patch.Status != nil && *patch.Status == domain.OrderStatusCancelled
	if wasCancelled && patch.Status != nil && *patch.Status != domain.OrderStatusCancelled {
		return invalid("status", "a cancelled order cannot be reopened")
	}
	if wasCancelled && items != nil {
		return invalid("items", "a cancelled order cannot be edited")
	}

	var products []domain.Product
	if items != nil || cancelling {
		if products, err = s.products.GetAll(ctx, existing.StoreID); err != nil {
			return err
		}
	}

	if items != nil {
		for i := range items {
			if product, ok := findProduct(products, items[i].ProductID); ok && items[i].Name == "" {
				items[i].Name = product.Name
			}
		}
		priced, total := domain.PriceItems(items)
		patch.Items = priced
		patch.TotalAmount = &total

		if existing.Payment != nil {
			resettled := existing
			payment := *existing.Payment
			resettled.Payment = &payment
			resettled.TotalAmount = total
			resettled.Settle()
			patch.Payment = resettled.Payment
		}
	}

	deltas := make(map[string]int)
	switch {
	case cancelling:
		for _, item := range existing.Items {
			deltas[item.ProductID] += item.Quantity
		}
	case items != nil:
		for _, item := range existing.Items {
			deltas[item.ProductID] += item.Quantity
		}
		for _, item := range patch.Items {
			deltas[item.ProductID] -= item.Quantity
		}
	}

	plan, err := planStock(products, deltas)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	patch.UpdatedAt = &now
	if err := s.orders.Update(ctx, "", id, patch); err != nil {
		return err
	}

	s.applyStock(ctx, existing.StoreID, plan)
	if cancelling {
		s.logAction(ctx, "order_cancel", fmt.Sprintf("order=%s store=%s", id, existing.StoreID))
	}
	return nil
}

// DeleteOrder removes the order record only; stock is not touched.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	return s.orders.Delete(ctx, "", id)
}

func (s *Service) AddPayment(ctx context.Context, id string, req domain.PaymentRequest) (domain.Order, error) {
	id, err := requireID(id)
	if err != nil {
		return domain.Order{}, err
	}
	if req.Amount <= 0 {
		return domain.Order{}, invalid("amount", "must be greater than zero")
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if !domain.IsPaymentMethod(method) {
		return domain.Order{}, invalid("method", "must be cash, card, transfer or ewallet")
	}

	existing, err := s.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if existing.Status == domain.OrderStatusCancelled {
		return domain.Order{}, invalid("status", "a cancelled order cannot take payments")
	}
	if existing.Payment != nil && existing.Payment.PaymentStatus == domain.PaymentStatusPaid {
		return domain.Order{}, invalid("amount", "order is already paid")
	}

	return s.orders.AddPayment(ctx, id, domain.PaymentEntry{
		Amount: req.Amount,
		Method: method,
		Note:   strings.TrimSpace(req.Note),
	})
}

// DailyRevenue reports completed-order revenue for date (YYYY-MM-DD); an
// empty date means today in the business time zone.
func (s *Service) DailyRevenue(ctx context.Context, date string) (domain.DailyRevenue, error) {
	day, err := s.parseDay("date", date)
	if err != nil {
		return domain.DailyRevenue{}, err
	}
	revenue, err := s.orders.GetDailyRevenue(ctx, day)
	if err != nil {
		return domain.DailyRevenue{}, err
	}
	return domain.DailyRevenue{Date: day, Revenue: revenue}, nil
}

func (s *Service) parseDay(field string, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.clock.Now().Format(time.DateOnly), nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return "", invalid(field, "must be YYYY-MM-DD")
	}
	return parsed.Format(time.DateOnly), nil
}

func normalizeItems(inputs []domain.OrderItemInput) ([]domain.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, invalid("items", "must contain at least one item")
	}
	items := make([]domain.OrderItem, 0, len(inputs))
	for i, input := range inputs {
		productID := strings.TrimSpace(input.ProductID)
		if productID == "" {
			return nil, invalid(fmt.Sprintf("items[%d].productId", i), "is required")
		}
		if input.Quantity < 1 {
			return nil, invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if input.Price < 0 {
			return nil, invalid(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
		items = append(items, domain.OrderItem{
			ProductID: productID,
			Name:      strings.TrimSpace(input.Name),
			Quantity:  input.Quantity,
			Price:     input.Price,
		})
	}
	return items, nil
}

type stockMove struct {
	productID string
	quantity  int
}

// planStock turns per-product deltas into target quantities, failing when any
// known product would go negative. Unknown products are skipped.
func planStock(products []domain.Product, deltas map[string]int) ([]stockMove, error) {
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	plan := make([]stockMove, 0, len(ids))
	for _, id := range ids {
		delta := deltas[id]
		if delta == 0 {
			continue
		}
		product, ok := findProduct(products, id)
		if !ok {
			continue
		}
		next := product.Quantity + delta
		if next < 0 {
			return nil, fmt.Errorf("product %s has %d in stock, %d requested: %w", id, product.Quantity, -delta, ErrInsufficientStock)
		}
		plan = append(plan, stockMove{productID: id, quantity: next})
	}
	return plan, nil
}

func (s *Service) applyStock(ctx context.Context, storeID string, plan []stockMove) {
	now := s.clock.Now()
	for _, move := range plan {
		quantity := move.quantity
		patch := domain.ProductPatch{Quantity: &quantity, UpdatedAt: &now}
		if err := s.products.Update(ctx, storeID, move.productID, patch); err != nil {
			log.Printf("[service] WARN: failed to move stock store=%s product=%s: %v", storeID, move.productID, err)
		}
	}
}
