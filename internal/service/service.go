package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
)

var (
	ErrInvalid           = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = entity.ErrNotFound
)

// ValidationError names the offending field. It matches ErrInvalid under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

func invalid(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Entities are the collection services the Service writes through. In
// production each one is a fallback coordinator.
type Entities struct {
	Products  entity.ProductService
	Customers entity.CustomerService
	Purchases entity.PurchaseService
	Orders    entity.OrderService
}

type Options struct {
	DefaultStoreID string
	Location       *time.Location
	Now            func() time.Time
}

type Service struct {
	products       entity.ProductService
	customers      entity.CustomerService
	purchases      entity.PurchaseService
	orders         entity.OrderService
	clock          entity.Clock
	defaultStoreID string
}

func New(entities Entities, opts Options) *Service {
	if opts.DefaultStoreID == "" {
		opts.DefaultStoreID = "main"
	}

	return &Service{
		products:       entities.Products,
		customers:      entities.Customers,
		purchases:      entities.Purchases,
		orders:         entities.Orders,
		clock:          entity.NewClock(opts.Now, opts.Location),
		defaultStoreID: opts.DefaultStoreID,
	}
}

func (s *Service) DefaultStoreID() string {
	return s.defaultStoreID
}

func (s *Service) ListProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	storeID, err := s.resolveStoreID(storeID)
	if err != nil {
		return nil, err
	}
	return s.products.GetAll(ctx, storeID)
}

func (s *Service) CreateProduct(ctx context.Context, storeID string, req domain.ProductCreateRequest) (domain.Product, error) {
	storeID, err := s.resolveStoreID(storeID)
	if err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.ExpiryDate = strings.TrimSpace(req.ExpiryDate)

	if req.Name == "" {
		return domain.Product{}, invalid("name", "is required")
	}
	if req.Quantity < 0 {
		return domain.Product{}, invalid("quantity", "must not be negative")
	}
	if req.Price < 0 {
		return domain.Product{}, invalid("price", "must not be negative")
	}
	if err := validatePackaging(req.PiecesPerBox, req.BoxQuantity, req.BoxPrice); err != nil {
		return domain.Product{}, err
	}
	if err := validateExpiry(req.ExpiryDate); err != nil {
		return domain.Product{}, err
	}

	return s.products.Add(ctx, storeID, domain.Product{
		Name:         req.Name,
		Quantity:     req.Quantity,
		Price:        req.Price,
		StoreID:      storeID,
		Category:     req.Category,
		PiecesPerBox: req.PiecesPerBox,
		BoxQuantity:  req.BoxQuantity,
		BoxPrice:     req.BoxPrice,
		ExpiryDate:   req.ExpiryDate,
	})
}

// UpdateProduct merges patch into the product. A missing id is not an error.
func (s *Service) UpdateProduct(ctx context.Context, storeID string, id string, patch domain.ProductPatch) error {
	storeID, err := s.resolveStoreID(storeID)
	if err != nil {
		return err
	}
	id, err = requireID(id)
	if err != nil {
		return err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		patch.Name = &name
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		patch.Category = &category
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return invalid("quantity", "must not be negative")
	}
	if patch.Price != nil && *patch.Price < 0 {
		return invalid("price", "must not be negative")
	}
	if err := validatePackaging(patch.PiecesPerBox, patch.BoxQuantity, patch.BoxPrice); err != nil {
		return err
	}
	if patch.ExpiryDate != nil {
		if err := validateExpiry(strings.TrimSpace(*patch.ExpiryDate)); err != nil {
			return err
		}
	}

	now := s.clock.Now()
	patch.UpdatedAt = &now
	return s.products.Update(ctx, storeID, id, patch)
}

func (s *Service) DeleteProduct(ctx context.Context, storeID string, id string) error {
	storeID, err := s.resolveStoreID(storeID)
	if err != nil {
		return err
	}
	id, err = requireID(id)
	if err != nil {
		return err
	}
	return s.products.Delete(ctx, storeID, id)
}

// AdjustStock adds delta (negative to remove) to a product's quantity.
func (s *Service) AdjustStock(ctx context.Context, storeID string, id string, delta int) (domain.Product, error) {
	storeID, err := s.resolveStoreID(storeID)
	if err != nil {
		return domain.Product{}, err
	}
	id, err = requireID(id)
	if err != nil {
		return domain.Product{}, err
	}
	if delta == 0 {
		return domain.Product{}, invalid("delta", "must not be zero")
	}

	products, err := s.products.GetAll(ctx, storeID)
	if err != nil {
		return domain.Product{}, err
	}
	product, ok := findProduct(products, id)
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	next := product.Quantity + delta
	if next < 0 {
		return domain.Product{}, fmt.Errorf("product %s has %d in stock: %w", id, product.Quantity, ErrInsufficientStock)
	}

	now := s.clock.Now()
	patch := domain.ProductPatch{Quantity: &next, UpdatedAt: &now}
	if err := s.products.Update(ctx, storeID, id, patch); err != nil {
		return domain.Product{}, err
	}
	product.Apply(patch)

	s.logAction(ctx, "stock_adjust", fmt.Sprintf("store=%s product=%s delta=%d quantity=%d", storeID, id, delta, next))
	return product, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.GetAll(ctx, "")
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" {
		return domain.Customer{}, invalid("name", "is required")
	}
	if err := validateEmail(req.Email); err != nil {
		return domain.Customer{}, err
	}

	return s.customers.Add(ctx, "", domain.Customer{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		patch.Name = &name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		patch.Phone = &phone
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if err := validateEmail(email); err != nil {
			return err
		}
		patch.Email = &email
	}
	if patch.TotalPurchases != nil && *patch.TotalPurchases < 0 {
		return invalid("totalPurchases", "must not be negative")
	}
	return s.customers.Update(ctx, "", id, patch)
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	return s.customers.Delete(ctx, "", id)
}

// ListPurchases returns every purchase, or only those of customerID when set.
func (s *Service) ListPurchases(ctx context.Context, customerID string) ([]domain.Purchase, error) {
	purchases, err := s.purchases.GetAll(ctx, "")
	if err != nil {
		return nil, err
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return purchases, nil
	}
	filtered := make([]domain.Purchase, 0, len(purchases))
	for _, purchase := range purchases {
		if purchase.CustomerID == customerID {
			filtered = append(filtered, purchase)
		}
	}
	return filtered, nil
}

// CreatePurchase records the purchase, then bumps the customer's purchase
// counter. The counter update is not atomic with the purchase and a failure
// there is only logged.
func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest) (domain.Purchase, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.StoreName = strings.TrimSpace(req.StoreName)
	req.ProductName = strings.TrimSpace(req.ProductName)

	if req.CustomerID == "" {
		return domain.Purchase{}, invalid("customerId", "is required")
	}
	if req.ProductName == "" {
		return domain.Purchase{}, invalid("productName", "is required")
	}
	if req.Quantity < 1 {
		return domain.Purchase{}, invalid("quantity", "must be at least 1")
	}
	if req.Price < 0 {
		return domain.Purchase{}, invalid("price", "must not be negative")
	}

	customers, err := s.customers.GetAll(ctx, "")
	if err != nil {
		return domain.Purchase{}, err
	}
	customer, found := findCustomer(customers, req.CustomerID)
	if req.CustomerName == "" && found {
		req.CustomerName = customer.Name
	}

	created, err := s.purchases.Add(ctx, "", domain.Purchase{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		StoreName:    defaultString(req.StoreName, s.defaultStoreID),
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		Price:        req.Price,
	})
	if err != nil {
		return domain.Purchase{}, err
	}

	if !found {
		log.Printf("[service] WARN: purchase %s references unknown customer %s", created.ID, req.CustomerID)
		return created, nil
	}
	count := customer.TotalPurchases + 1
	if err := s.customers.Update(ctx, "", customer.ID, domain.CustomerPatch{TotalPurchases: &count}); err != nil {
		log.Printf("[service] WARN: failed to update purchase counter customer=%s: %v", customer.ID, err)
	}
	return created, nil
}

func (s *Service) UpdatePurchase(ctx context.Context, id string, patch domain.PurchasePatch) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	if patch.ProductName != nil {
		name := strings.TrimSpace(*patch.ProductName)
		if name == "" {
			return invalid("productName", "must not be empty")
		}
		patch.ProductName = &name
	}
	if patch.Quantity != nil && *patch.Quantity < 1 {
		return invalid("quantity", "must be at least 1")
	}
	if patch.Price != nil && *patch.Price < 0 {
		return invalid("price", "must not be negative")
	}
	if patch.TotalAmount != nil && *patch.TotalAmount < 0 {
		return invalid("totalAmount", "must not be negative")
	}

	if patch.TotalAmount == nil && (patch.Quantity != nil || patch.Price != nil) {
		purchases, err := s.purchases.GetAll(ctx, "")
		if err != nil {
			return err
		}
		existing, ok := findPurchase(purchases, id)
		if !ok {
			return nil
		}
		existing.Apply(patch)
		_, total := domain.PriceItems([]domain.OrderItem{{Quantity: existing.Quantity, Price: existing.Price}})
		patch.TotalAmount = &total
	}
	return s.purchases.Update(ctx, "", id, patch)
}

func (s *Service) DeletePurchase(ctx context.Context, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	return s.purchases.Delete(ctx, "", id)
}

func (s *Service) resolveStoreID(storeID string) (string, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	if err := ValidateStoreID(storeID); err != nil {
		return "", err
	}
	return storeID, nil
}

func (s *Service) logAction(ctx context.Context, action string, detail string) {
	actor := "system"
	if a, ok := ActorFromContext(ctx); ok && a.Username != "" {
		actor = a.Username
	}
	log.Printf("[service] INFO: %s by=%s %s", action, actor, detail)
}

// ValidateStoreID accepts ids made of letters, digits, '-' and '_', since the
// id becomes part of a collection key.
func ValidateStoreID(storeID string) error {
	if storeID == "" {
		return invalid("storeId", "is required")
	}
	if len(storeID) > 64 {
		return invalid("storeId", "must be at most 64 characters")
	}
	for _, r := range storeID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return invalid("storeId", "may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("id", "is required")
	}
	return id, nil
}

func validatePackaging(piecesPerBox *int, boxQuantity *int, boxPrice *float64) error {
	if piecesPerBox != nil && *piecesPerBox < 1 {
		return invalid("piecesPerBox", "must be at least 1")
	}
	if boxQuantity != nil && *boxQuantity < 0 {
		return invalid("boxQuantity", "must not be negative")
	}
	if boxPrice != nil && *boxPrice < 0 {
		return invalid("boxPrice", "must not be negative")
	}
	return nil
}

func validateExpiry(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, date); err == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, date); err == nil {
		return nil
	}
	return invalid("expiryDate", "must be YYYY-MM-DD")
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "is not a valid address")
	}
	return nil
}

func findProduct(products []domain.Product, id string) (domain.Product, bool) {
	for _, product := range products {
		if product.ID == id {
			return product, true
		}
	}
	return domain.Product{}, false
}

func findCustomer(customers []domain.Customer, id string) (domain.Customer, bool) {
	for _, customer := range customers {
		if customer.ID == id {
			return customer, true
		}
	}
	return domain.Customer{}, false
}

func findPurchase(purchases []domain.Purchase, id string) (domain.Purchase, bool) {
	for _, purchase := range purchases {
		if purchase.ID == id {
			return purchase, true
		}
	}
	return domain.Purchase{}, false
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
