package client

import (
	"context"
	"net/http"
	"net/url"

	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
)

type Products struct{ c *Client }
type Customers struct{ c *Client }
type Purchases struct{ c *Client }
type Orders struct{ c *Client }

var (
	_ entity.ProductService  = Products{}
	_ entity.CustomerService = Customers{}
	_ entity.PurchaseService = Purchases{}
	_ entity.OrderService    = Orders{}
)

func (c *Client) Products() Products   { return Products{c: c} }
func (c *Client) Customers() Customers { return Customers{c: c} }
func (c *Client) Purchases() Purchases { return Purchases{c: c} }
func (c *Client) Orders() Orders       { return Orders{c: c} }

func productsPath(storeID string) string {
	return "/api/v1/stores/" + url.PathEscape(storeID) + "/products"
}

// GetAll lists the products of the store given as scope.
func (p Products) GetAll(ctx context.Context, scope string) ([]domain.Product, error) {
	var out struct {
		Products []domain.Product `json:"products"`
	}
	if err := p.c.do(ctx, http.MethodGet, productsPath(scope), nil, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Products), nil
}

func (p Products) Add(ctx context.Context, scope string, product domain.Product) (domain.Product, error) {
	req := domain.ProductCreateRequest{
		Name:         product.Name,
		Quantity:     product.Quantity,
		Price:        product.Price,
		Category:     product.Category,
		PiecesPerBox: product.PiecesPerBox,
		BoxQuantity:  product.BoxQuantity,
		BoxPrice:     product.BoxPrice,
		ExpiryDate:   product.ExpiryDate,
	}
	var out struct {
		Product domain.Product `json:"product"`
	}
	if err := p.c.do(ctx, http.MethodPost, productsPath(scope), nil, req, &out); err != nil {
		return domain.Product{}, err
	}
	return out.Product, nil
}

func (p Products) Update(ctx context.Context, scope string, id string, patch domain.ProductPatch) error {
	return p.c.do(ctx, http.MethodPatch, productsPath(scope)+"/"+url.PathEscape(id), nil, patch, nil)
}

func (p Products) Delete(ctx context.Context, scope string, id string) error {
	return p.c.do(ctx, http.MethodDelete, productsPath(scope)+"/"+url.PathEscape(id), nil, nil, nil)
}

// AdjustStock is not part of the entity contract; it maps to the stock endpoint.
func (p Products) AdjustStock(ctx context.Context, storeID string, id string, delta int) (domain.Product, error) {
	var out struct {
		Product domain.Product `json:"product"`
	}
	err := p.c.do(ctx, http.MethodPost, productsPath(storeID)+"/"+url.PathEscape(id)+"/stock", nil, domain.StockAdjustRequest{Delta: delta}, &out)
	return out.Product, err
}

func (cs Customers) GetAll(ctx context.Context, _ string) ([]domain.Customer, error) {
	var out struct {
		Customers []domain.Customer `json:"customers"`
	}
	if err := cs.c.do(ctx, http.MethodGet, "/api/v1/customers", nil, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Customers), nil
}

func (cs Customers) Add(ctx context.Context, _ string, customer domain.Customer) (domain.Customer, error) {
	req := domain.CustomerCreateRequest{Name: customer.Name, Phone: customer.Phone, Email: customer.Email}
	var out struct {
		Customer domain.Customer `json:"customer"`
	}
	if err := cs.c.do(ctx, http.MethodPost, "/api/v1/customers", nil, req, &out); err != nil {
		return domain.Customer{}, err
	}
	return out.Customer, nil
}

func (cs Customers) Update(ctx context.Context, _ string, id string, patch domain.CustomerPatch) error {
	return cs.c.do(ctx, http.MethodPatch, "/api/v1/customers/"+url.PathEscape(id), nil, patch, nil)
}

func (cs Customers) Delete(ctx context.Context, _ string, id string) error {
	return cs.c.do(ctx, http.MethodDelete, "/api/v1/customers/"+url.PathEscape(id), nil, nil, nil)
}

func (ps Purchases) GetAll(ctx context.Context, _ string) ([]domain.Purchase, error) {
	var out struct {
		Purchases []domain.Purchase `json:"purchases"`
	}
	if err := ps.c.do(ctx, http.MethodGet, "/api/v1/purchases", nil, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Purchases), nil
}

func (ps Purchases) Add(ctx context.Context, _ string, purchase domain.Purchase) (domain.Purchase, error) {
	req := domain.PurchaseCreateRequest{
		CustomerID:   purchase.CustomerID,
		CustomerName: purchase.CustomerName,
		StoreName:    purchase.StoreName,
		ProductName:  purchase.ProductName,
		Quantity:     purchase.Quantity,
		Price:        purchase.Price,
	}
	var out struct {
		Purchase domain.Purchase `json:"purchase"`
	}
	if err := ps.c.do(ctx, http.MethodPost, "/api/v1/purchases", nil, req, &out); err != nil {
		return domain.Purchase{}, err
	}
	return out.Purchase, nil
}

func (ps Purchases) Update(ctx context.Context, _ string, id string, patch domain.PurchasePatch) error {
	return ps.c.do(ctx, http.MethodPatch, "/api/v1/purchases/"+url.PathEscape(id), nil, patch, nil)
}

func (ps Purchases) Delete(ctx context.Context, _ string, id string) error {
	return ps.c.do(ctx, http.MethodDelete, "/api/v1/purchases/"+url.PathEscape(id), nil, nil, nil)
}

func (o Orders) GetAll(ctx context.Context, _ string) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := o.c.do(ctx, http.MethodGet, "/api/v1/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Orders), nil
}

func (o Orders) Add(ctx context.Context, _ string, order domain.Order) (domain.Order, error) {
	req := domain.OrderCreateRequest{
		CustomerName: order.CustomerName,
		StoreID:      order.StoreID,
		Status:       order.Status,
		Items:        itemInputs(order.Items),
	}
	var out struct {
		Order domain.Order `json:"order"`
	}
	if err := o.c.do(ctx, http.MethodPost, "/api/v1/orders", nil, req, &out); err != nil {
		return domain.Order{}, err
	}
	return out.Order, nil
}

// Update sends the fields the API lets callers change: customer name, status
// and items. Totals and payments are derived server side.
func (o Orders) Update(ctx context.Context, _ string, id string, patch domain.OrderPatch) error {
	req := domain.OrderUpdateRequest{
		CustomerName: patch.CustomerName,
		Status:       patch.Status,
	}
	if patch.Items != nil {
		req.Items = itemInputs(patch.Items)
	}
	return o.c.do(ctx, http.MethodPatch, "/api/v1/orders/"+url.PathEscape(id), nil, req, nil)
}

func (o Orders) Delete(ctx context.Context, _ string, id string) error {
	return o.c.do(ctx, http.MethodDelete, "/api/v1/orders/"+url.PathEscape(id), nil, nil, nil)
}

func (o Orders) Get(ctx context.Context, id string) (domain.Order, bool, error) {
	var out struct {
		Order domain.Order `json:"order"`
	}
	err := o.c.do(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(id), nil, nil, &out)
	if IsNotFound(err) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	return out.Order, true, nil
}

func (o Orders) GetDailyRevenue(ctx context.Context, date string) (float64, error) {
	var out domain.DailyRevenue
	query := url.Values{"date": []string{date}}
	if err := o.c.do(ctx, http.MethodGet, "/api/v1/reports/daily-revenue", query, nil, &out); err != nil {
		return 0, err
	}
	return out.Revenue, nil
}

func (o Orders) AddPayment(ctx context.Context, id string, entry domain.PaymentEntry) (domain.Order, error) {
	req := domain.PaymentRequest{Amount: entry.Amount, Method: entry.Method, Note: entry.Note}
	var out struct {
		Order domain.Order `json:"order"`
	}
	if err := o.c.do(ctx, http.MethodPost, "/api/v1/orders/"+url.PathEscape(id)+"/payments", nil, req, &out); err != nil {
		return domain.Order{}, err
	}
	return out.Order, nil
}

func itemInputs(items []domain.OrderItem) []domain.OrderItemInput {
	inputs := make([]domain.OrderItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, domain.OrderItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return inputs
}

func nonNil[T any](records []T) []T {
	if records == nil {
		return []T{}
	}
	return records
}
