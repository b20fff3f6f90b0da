package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
	"storepos/backend/internal/fallback"
	"storepos/backend/internal/recordstore/memory"
)

var testNow = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func newTestService() *Service {
	opts := entity.Options{Now: func() time.Time { return testNow }}
	local := memory.New()
	return New(Entities{
		Products:  fallback.NewCoordinator[domain.Product, domain.ProductPatch](nil, entity.NewProducts(local, opts), fallback.Options{Name: "product"}),
		Customers: fallback.NewCoordinator[domain.Customer, domain.CustomerPatch](nil, entity.NewCustomers(local, opts), fallback.Options{Name: "customer"}),
		Purchases: fallback.NewCoordinator[domain.Purchase, domain.PurchasePatch](nil, entity.NewPurchases(local, opts), fallback.Options{Name: "purchase"}),
		Orders:    fallback.NewOrderCoordinator(nil, entity.NewOrders(local, opts), fallback.Options{}),
	}, Options{DefaultStoreID: "mangas", Now: func() time.Time { return testNow }})
}

func mustCreateProduct(t *testing.T, svc *Service, name string, quantity int, price float64) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), "", domain.ProductCreateRequest{Name: name, Quantity: quantity, Price: price})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func productQuantity(t *testing.T, svc *Service, id string) int {
	t.Helper()
	products, err := svc.ListProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	for _, product := range products {
		if product.ID == id {
			return product.Quantity
		}
	}
	t.Fatalf("product %s not found", id)
	return 0
}

func TestCreateProductUsesDefaultStore(t *testing.T) {
	svc := newTestService()

	product := mustCreateProduct(t, svc, "  Coca Cola ", 50, 1500)
	if product.StoreID != "mangas" {
		t.Fatalf("expected default store mangas, got %s", product.StoreID)
	}
	if product.Name != "Coca Cola" {
		t.Fatalf("expected trimmed name, got %q", product.Name)
	}
	if product.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []domain.ProductCreateRequest{
		{Name: "", Quantity: 1, Price: 1},
		{Name: "Teh", Quantity: -1, Price: 1},
		{Name: "Teh", Quantity: 1, Price: -5},
		{Name: "Teh", Quantity: 1, Price: 1, ExpiryDate: "next week"},
	}
	for _, req := range cases {
		_, err := svc.CreateProduct(ctx, "", req)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %+v, got %v", req, err)
		}
	}

	_, err := svc.CreateProduct(ctx, "bad store", domain.ProductCreateRequest{Name: "Teh"})
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Field != "storeId" {
		t.Fatalf("expected storeId validation error, got %v", err)
	}

	products, _ := svc.ListProducts(ctx, "")
	if len(products) != 0 {
		t.Fatalf("expected nothing stored after rejected input, got %d", len(products))
	}
}

func TestUpdateProductRejectsNegativeQuantity(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "Coca Cola", 50, 1500)

	qty := -3
	err := svc.UpdateProduct(context.Background(), "", product.ID, domain.ProductPatch{Quantity: &qty})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if got := productQuantity(t, svc, product.ID); got != 50 {
		t.Fatalf("expected quantity unchanged, got %d", got)
	}
}

func TestUpdateMissingProductIsNoOp(t *testing.T) {
	svc := newTestService()
	price := 100.0
	if err := svc.UpdateProduct(context.Background(), "", "prd_missing", domain.ProductPatch{Price: &price}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), "", "prd_missing"); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := mustCreateProduct(t, svc, "Coca Cola", 5, 1500)

	updated, err := svc.AdjustStock(ctx, "", product.ID, 10)
	if err != nil {
		t.Fatalf("adjust stock failed: %v", err)
	}
	if updated.Quantity != 15 {
		t.Fatalf("expected 15, got %d", updated.Quantity)
	}

	_, err = svc.AdjustStock(ctx, "", product.ID, -16)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	_, err = svc.AdjustStock(ctx, "", "prd_missing", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := productQuantity(t, svc, product.ID); got != 15 {
		t.Fatalf("expected 15 after rejected adjustment, got %d", got)
	}
}

func TestCreatePurchaseIncrementsCustomerCounter(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, domain.CustomerCreateRequest{Name: "Ana", Phone: "0812", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	purchase, err := svc.CreatePurchase(ctx, domain.PurchaseCreateRequest{
		CustomerID:  customer.ID,
		ProductName: "Teh Botol",
		Quantity:    3,
		Price:       4000,
	})
	if err != nil {
		t.Fatalf("create purchase failed: %v", err)
	}
	if purchase.TotalAmount != 12000 {
		t.Fatalf("expected total 12000, got %v", purchase.TotalAmount)
	}
	if purchase.CustomerName != "Ana" {
		t.Fatalf("expected denormalized customer name, got %q", purchase.CustomerName)
	}

	customers, _ := svc.ListCustomers(ctx)
	if len(customers) != 1 || customers[0].TotalPurchases != 1 {
		t.Fatalf("expected purchase counter 1, got %+v", customers)
	}
}

func TestCreatePurchaseForUnknownCustomerStillStores(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, domain.PurchaseCreateRequest{CustomerID: "cus_ghost", ProductName: "Teh", Quantity: 1, Price: 1})
	if err != nil {
		t.Fatalf("create purchase failed: %v", err)
	}
	purchases, _ := svc.ListPurchases(ctx, "cus_ghost")
	if len(purchases) != 1 {
		t.Fatalf("expected one purchase, got %d", len(purchases))
	}
}

func TestUpdatePurchaseRecomputesTotal(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, domain.PurchaseCreateRequest{CustomerID: "cus_1", ProductName: "Teh", Quantity: 2, Price: 500})
	if err != nil {
		t.Fatalf("create purchase failed: %v", err)
	}
	qty := 5
	if err := svc.UpdatePurchase(ctx, purchase.ID, domain.PurchasePatch{Quantity: &qty}); err != nil {
		t.Fatalf("update purchase failed: %v", err)
	}
	purchases, _ := svc.ListPurchases(ctx, "")
	if purchases[0].TotalAmount != 2500 {
		t.Fatalf("expected total 2500, got %v", purchases[0].TotalAmount)
	}
}

func TestCreateOrderTakesStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := mustCreateProduct(t, svc, "Coca Cola", 50, 1500)

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerName: "Ana",
		Items:        []domain.OrderItemInput{{ProductID: product.ID, Quantity: 2, Price: 1500}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.TotalAmount != 3000 || order.Items[0].Total != 3000 {
		t.Fatalf("expected totals of 3000, got %+v", order)
	}
	if order.Items[0].Name != "Coca Cola" {
		t.Fatalf("expected item name filled from product, got %q", order.Items[0].Name)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if got := productQuantity(t, svc, product.ID); got != 48 {
		t.Fatalf("expected stock 48, got %d", got)
	}
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := mustCreateProduct(t, svc, "Coca Cola", 1, 1500)

	_, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerName: "Ana",
		Items: []domain.OrderItemInput{
			{ProductID: product.ID, Quantity: 1, Price: 1500},
			{ProductID: product.ID, Quantity: 1, Price: 1500},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	orders, _ := svc.ListOrders(ctx, "", "")
	if len(orders) != 0 {
		t.Fatalf("expected no order stored, got %d", len(orders))
	}
}

func TestCreateOrderValidatesItems(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []domain.OrderCreateRequest{
		{CustomerName: "Ana"},
		{CustomerName: "", Items: []domain.OrderItemInput{{ProductID: "p1", Quantity: 1}}},
		{CustomerName: "Ana", Items: []domain.OrderItemInput{{ProductID: "p1", Quantity: 0}}},
		{CustomerName: "Ana", Items: []domain.OrderItemInput{{ProductID: "", Quantity: 1}}},
		{CustomerName: "Ana", Status: "shipped", Items: []domain.OrderItemInput{{ProductID: "p1", Quantity: 1}}},
	}
	for _, req := range cases {
		if _, err := svc.CreateOrder(ctx, req); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %+v, got %v", req, err)
		}
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := mustCreateProduct(t, svc, "Coca Cola", 10, 1500)

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerName: "Ana",
		Items:        []domain.OrderItemInput{{ProductID: product.ID, Quantity: 4, Price: 1500}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled := domain.OrderStatusCancelled
	if err := svc.UpdateOrder(ctx, order.ID, domain.OrderUpdateRequest{Status: &cancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := productQuantity(t, svc, product.ID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}

	pending := domain.OrderStatusPending
	if err := svc.UpdateOrder(ctx, order.ID, domain.OrderUpdateRequest{Status: &pending}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected reopening to be rejected, got %v", err)
	}
}

func TestUpdateOrderItemsMovesStockDifference(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := mustCreateProduct(t, svc, "Coca Cola", 10, 1500)

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerName: "Ana",
		Items:        []domain.OrderItemInput{{ProductID: product.ID, Quantity: 2, Price: 1500}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	err = svc.UpdateOrder(ctx, order.ID, domain.OrderUpdateRequest{
		Items: []domain.OrderItemInput{{ProductID: product.ID, Quantity: 5, Price: 1500}},
	})
	if err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	if got := productQuantity(t, svc, product.ID); got != 5 {
		t.Fatalf("expected stock 5, got %d", got)
	}

	updated, err := svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if updated.TotalAmount != 7500 {
		t.Fatalf("expected total 7500, got %v", updated.TotalAmount)
	}
}

func TestUpdateMissingOrderIsNoOp(t *testing.T) {
	svc := newTestService()
	status := domain.OrderStatusCompleted
	if err := svc.UpdateOrder(context.Background(), "ord_missing", domain.OrderUpdateRequest{Status: &status}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestAddPaymentValidatesAndSettles(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerName: "Ana",
		Items:        []domain.OrderItemInput{{ProductID: "p1", Quantity: 2, Price: 1500}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.AddPayment(ctx, order.ID, domain.PaymentRequest{Amount: 100, Method: "cheque"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid method, got %v", err)
	}
	if _, err := svc.AddPayment(ctx, order.ID, domain.PaymentRequest{Amount: 0, Method: "cash"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := svc.AddPayment(ctx, "ord_missing", domain.PaymentRequest{Amount: 10, Method: "cash"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	paid, err := svc.AddPayment(ctx, order.ID, domain.PaymentRequest{Amount: 3000, Method: "Cash"})
	if err != nil {
		t.Fatalf("add payment failed: %v", err)
	}
	if paid.Payment.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Payment.PaymentStatus)
	}
	if _, err := svc.AddPayment(ctx, order.ID, domain.PaymentRequest{Amount: 1, Method: "cash"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected already-paid rejection, got %v", err)
	}
}

func TestDailyRevenueAndSalesReport(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	completed, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerName: "Ana",
		Status:       domain.OrderStatusCompleted,
		Items:        []domain.OrderItemInput{{ProductID: "p1", Name: "Coca Cola", Quantity: 2, Price: 1500}},
	})
	if err != nil {
		t.Fatalf("create completed order failed: %v", err)
	}
	if _, err := svc.AddPayment(ctx, completed.ID, domain.PaymentRequest{Amount: 1000, Method: "card"}); err != nil {
		t.Fatalf("add payment failed: %v", err)
	}

	other, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		CustomerName: "Budi",
		StoreID:      "central",
		Items:        []domain.OrderItemInput{{ProductID: "p2", Quantity: 1, Price: 5000}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	cancelled := domain.OrderStatusCancelled
	if err := svc.UpdateOrder(ctx, other.ID, domain.OrderUpdateRequest{Status: &cancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	daily, err := svc.DailyRevenue(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("daily revenue failed: %v", err)
	}
	if daily.Revenue != 3000 {
		t.Fatalf("expected revenue 3000, got %v", daily.Revenue)
	}
	if _, err := svc.DailyRevenue(ctx, "15/01/2024"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid date, got %v", err)
	}

	report, err := svc.SalesReport(ctx, "", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("sales report failed: %v", err)
	}
	if report.Orders != 2 || report.Completed != 1 || report.Cancelled != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.Revenue != 3000 || report.PaymentsCollected != 1000 || report.Outstanding != 2000 {
		t.Fatalf("unexpected money totals: %+v", report)
	}
	if len(report.ByStore) != 2 || report.ByStore[0].StoreID != "central" || report.ByStore[1].Revenue != 3000 {
		t.Fatalf("unexpected store breakdown: %+v", report.ByStore)
	}
	if len(report.TopProducts) != 1 || report.TopProducts[0].Quantity != 2 {
		t.Fatalf("unexpected top products: %+v", report.TopProducts)
	}

	scoped, err := svc.SalesReport(ctx, "central", "2024-01-15", "2024-01-15")
	if err != nil {
		t.Fatalf("scoped report failed: %v", err)
	}
	if scoped.Orders != 1 || scoped.Revenue != 0 {
		t.Fatalf("unexpected scoped report: %+v", scoped)
	}

	if _, err := svc.SalesReport(ctx, "", "2024-02-01", "2024-01-01"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected reversed range to be rejected, got %v", err)
	}
}
