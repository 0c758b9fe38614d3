package models

import "time"

// Product represents a catalog product. Price is stored in minor
// currency units (paise).
type Product struct {
	ID          int64     `db:"id" json:"id"`
	SKU         string    `db:"sku" json:"sku"`
	VendorID    int64     `db:"vendor_id" json:"vendor_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Price       int64     `db:"price" json:"price"`
	Stock       int       `db:"stock" json:"stock"`
	Active      bool      `db:"active" json:"active"`
	Rating      float64   `db:"rating" json:"rating"`
	ReviewCount int       `db:"review_count" json:"review_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Inventory is the per-franchise stock ledger, separate from the
// catalog-level Product.Stock counter.
type Inventory struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	FranchiseID int64     `db:"franchise_id" json:"franchise_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Reserved    int       `db:"reserved" json:"reserved"`
	MinStock    int       `db:"min_stock" json:"min_stock"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Cart is owned by exactly one user and created lazily on first add.
type Cart struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem captures the unit price at add time, not a live lookup.
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	CartID    int64     `db:"cart_id" json:"cart_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice int64     `db:"unit_price" json:"unit_price"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// Order is immutable after creation except for its status field.
type Order struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	Discount       int64     `db:"discount" json:"discount"`
	CouponCode     string    `db:"coupon_code" json:"coupon_code,omitempty"`
	Status         string    `db:"status" json:"status"`
	ShippingName   string    `db:"shipping_name" json:"shipping_name"`
	ShippingPhone  string    `db:"shipping_phone" json:"shipping_phone"`
	ShippingLine   string    `db:"shipping_line" json:"shipping_line"`
	ShippingCity   string    `db:"shipping_city" json:"shipping_city"`
	ShippingPin    string    `db:"shipping_pin" json:"shipping_pin"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a snapshot line of an order.
type OrderItem struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
	Subtotal  int64 `db:"subtotal" json:"subtotal"`
}

// Payment is the 1:1 payment record for an order. Gateway fields are
// populated only for gateway-backed methods.
type Payment struct {
	ID               int64     `db:"id" json:"id"`
	OrderID          int64     `db:"order_id" json:"order_id"`
	Amount           int64     `db:"amount" json:"amount"`
	Method           string    `db:"method" json:"method"`
	Status           string    `db:"status" json:"status"`
	GatewayOrderID   string    `db:"gateway_order_id" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string    `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	Signature        string    `db:"signature" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Review is gated on a delivered order item for the same (user, product).
type Review struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Coupon is a flat or percentage discount with a validity window and
// an optional usage cap.
type Coupon struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Type        string    `db:"type" json:"type"`
	Value       int64     `db:"value" json:"value"`
	MinOrder    int64     `db:"min_order" json:"min_order"`
	MaxDiscount int64     `db:"max_discount" json:"max_discount"`
	UsageLimit  int       `db:"usage_limit" json:"usage_limit"`
	UsedCount   int       `db:"used_count" json:"used_count"`
	Active      bool      `db:"active" json:"active"`
	ValidFrom   time.Time `db:"valid_from" json:"valid_from"`
	ValidUntil  time.Time `db:"valid_until" json:"valid_until"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StockAdjustment is the persisted ledger row for a manual inventory
// adjustment.
type StockAdjustment struct {
	ID          int64     `db:"id" json:"id"`
	Reference   string    `db:"reference" json:"reference"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	FranchiseID int64     `db:"franchise_id" json:"franchise_id"`
	Type        string    `db:"type" json:"type"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Reason      string    `db:"reason" json:"reason"`
	AdjustedBy  int64     `db:"adjusted_by" json:"adjusted_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StockTransfer is the persisted ledger row for a stock movement
// between two franchise locations.
type StockTransfer struct {
	ID              int64     `db:"id" json:"id"`
	Reference       string    `db:"reference" json:"reference"`
	ProductID       int64     `db:"product_id" json:"product_id"`
	FromFranchiseID int64     `db:"from_franchise_id" json:"from_franchise_id"`
	ToFranchiseID   int64     `db:"to_franchise_id" json:"to_franchise_id"`
	Quantity        int       `db:"quantity" json:"quantity"`
	Status          string    `db:"status" json:"status"`
	InitiatedBy     int64     `db:"initiated_by" json:"initiated_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Order statuses
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Payment statuses
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusSuccess  = "SUCCESS"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// Payment methods
const (
	PaymentMethodCOD      = "COD"
	PaymentMethodRazorpay = "RAZORPAY"
)

// Adjustment types
const (
	AdjustmentIncrease = "INCREASE"
	AdjustmentDecrease = "DECREASE"
)

// Transfer statuses
const (
	TransferCompleted = "COMPLETED"
	TransferRejected  = "REJECTED"
)

// Coupon types
const (
	CouponTypePercent = "PERCENT"
	CouponTypeFixed   = "FIXED"
)

var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to
// another. DELIVERED and CANCELLED are terminal.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
