package domain

import "time"

type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	StoreID      string    `json:"storeId"`
	Category     string    `json:"category"`
	PiecesPerBox *int      `json:"piecesPerBox,omitempty"`
	BoxQuantity  *int      `json:"boxQuantity,omitempty"`
	BoxPrice     *float64  `json:"boxPrice,omitempty"`
	ExpiryDate   string    `json:"expiryDate,omitempty"`
	AddedAt      time.Time `json:"addedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProductPatch is a partial update; nil fields keep their stored value.
type ProductPatch struct {
	Name         *string    `json:"name,omitempty"`
	Quantity     *int       `json:"quantity,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	Category     *string    `json:"category,omitempty"`
	PiecesPerBox *int       `json:"piecesPerBox,omitempty"`
	BoxQuantity  *int       `json:"boxQuantity,omitempty"`
	BoxPrice     *float64   `json:"boxPrice,omitempty"`
	ExpiryDate   *string    `json:"expiryDate,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

type ProductCreateRequest struct {
	Name         string   `json:"name"`
	Quantity     int      `json:"quantity"`
	Price        float64  `json:"price"`
	Category     string   `json:"category"`
	PiecesPerBox *int     `json:"piecesPerBox,omitempty"`
	BoxQuantity  *int     `json:"boxQuantity,omitempty"`
	BoxPrice     *float64 `json:"boxPrice,omitempty"`
	ExpiryDate   string   `json:"expiryDate,omitempty"`
}

type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

type Customer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email,omitempty"`
	JoinDate       string `json:"joinDate"`
	TotalPurchases int    `json:"totalPurchases"`
}

type CustomerPatch struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	TotalPurchases *int    `json:"totalPurchases,omitempty"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Purchase records a single product sold to a customer. Names are
// denormalized copies taken at write time.
type Purchase struct {
	ID           string  `json:"id"`
	CustomerID   string  `json:"customerId"`
	CustomerName string  `json:"customerName"`
	StoreName    string  `json:"storeName"`
	ProductName  string  `json:"productName"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	TotalAmount  float64 `json:"totalAmount"`
	Date         string  `json:"date"`
}

type PurchasePatch struct {
	CustomerName *string  `json:"customerName,omitempty"`
	StoreName    *string  `json:"storeName,omitempty"`
	ProductName  *string  `json:"productName,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	TotalAmount  *float64 `json:"totalAmount,omitempty"`
}

type PurchaseCreateRequest struct {
	CustomerID   string  `json:"customerId"`
	CustomerName string  `json:"customerName"`
	StoreName    string  `json:"storeName"`
	ProductName  string  `json:"productName"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

type PaymentEntry struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Method string  `json:"method"`
	Note   string  `json:"note,omitempty"`
}

type OrderPayment struct {
	TotalPaid       float64        `json:"totalPaid"`
	RemainingAmount float64        `json:"remainingAmount"`
	PaymentStatus   string         `json:"paymentStatus"`
	Payments        []PaymentEntry `json:"payments"`
}

// Order links to a customer only through the free-text CustomerName.
type Order struct {
	ID           string        `json:"id"`
	CustomerName string        `json:"customerName"`
	Items        []OrderItem   `json:"items"`
	TotalAmount  float64       `json:"totalAmount"`
	StoreID      string        `json:"storeId"`
	Status       string        `json:"status"`
	Date         string        `json:"date"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Payment      *OrderPayment `json:"payment,omitempty"`
}

type OrderPatch struct {
	CustomerName *string       `json:"customerName,omitempty"`
	Items        []OrderItem   `json:"items,omitempty"`
	TotalAmount  *float64      `json:"totalAmount,omitempty"`
	StoreID      *string       `json:"storeId,omitempty"`
	Status       *string       `json:"status,omitempty"`
	Payment      *OrderPayment `json:"payment,omitempty"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
}

type OrderItemInput struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderCreateRequest struct {
	CustomerName string           `json:"customerName"`
	StoreID      string           `json:"storeId"`
	Status       string           `json:"status,omitempty"`
	Items        []OrderItemInput `json:"items"`
}

type OrderUpdateRequest struct {
	CustomerName *string          `json:"customerName,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Items        []OrderItemInput `json:"items,omitempty"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Note   string  `json:"note,omitempty"`
}

type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

type StoreRevenue struct {
	StoreID string  `json:"storeId"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

type SalesReport struct {
	StoreID           string         `json:"storeId,omitempty"`
	From              string         `json:"from"`
	To                string         `json:"to"`
	Orders            int            `json:"orders"`
	Completed         int            `json:"completed"`
	Pending           int            `json:"pending"`
	Cancelled         int            `json:"cancelled"`
	Revenue           float64        `json:"revenue"`
	PaymentsCollected float64        `json:"paymentsCollected"`
	Outstanding       float64        `json:"outstanding"`
	ByStore           []StoreRevenue `json:"byStore"`
	TopProducts       []ProductSales `json:"topProducts"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal model for staff credentials.
type UserAccount struct {
	Username string
	Password string
	Role     string
}

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

func IsOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func IsPaymentMethod(method string) bool {
	switch method {
	case "cash", "card", "transfer", "ewallet":
		return true
	default:
		return false
	}
}
