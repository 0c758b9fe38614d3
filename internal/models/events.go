package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderReserved      = "ORDER_RESERVED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypePaymentCaptured    = "PAYMENT_CAPTURED"
	EventTypePaymentFailed      = "PAYMENT_FAILED"
	EventTypeInventoryAdjusted  = "INVENTORY_ADJUSTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order and its payment record are
// committed.
type OrderCreatedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	TotalAmount   int64           `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderItemData `json:"items"`
}

// OrderReservedEvent published when stock for every order line is held.
type OrderReservedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	TotalAmount   int64           `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published on every order status transition.
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	UserID     int64  `json:"user_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// PaymentCapturedEvent published after a verified gateway callback or
// COD acknowledgement marks a payment SUCCESS.
type PaymentCapturedEvent struct {
	BaseEvent
	OrderID          int64  `json:"order_id"`
	PaymentID        int64  `json:"payment_id"`
	Amount           int64  `json:"amount"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
}

// PaymentFailedEvent published when the gateway reports failure.
type PaymentFailedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	PaymentID int64  `json:"payment_id"`
	Reason    string `json:"reason"`
}

// InventoryAdjustedEvent published for every persisted adjustment or
// transfer leg.
type InventoryAdjustedEvent struct {
	BaseEvent
	Reference   string `json:"reference"`
	ProductID   int64  `json:"product_id"`
	FranchiseID int64  `json:"franchise_id"`
	Type        string `json:"type"`
	Quantity    int    `json:"quantity"`
	NewQuantity int    `json:"new_quantity"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
