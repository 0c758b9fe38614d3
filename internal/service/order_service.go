package service

import (
	"context"
	"fmt"
	"time"

	"martxmart/internal/broker"
	"martxmart/internal/gateway"
	"martxmart/internal/models"
	"martxmart/internal/store"
	"martxmart/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway creates remote payment orders. Satisfied by
// gateway.RazorpayClient.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.GatewayOrder, error)
}

// ShippingGateway creates shipments for dispatched orders. Satisfied by
// gateway.ShiprocketClient.
type ShippingGateway interface {
	CreateShipment(ctx context.Context, req *gateway.ShipmentRequest) (*gateway.Shipment, error)
}

// ShipmentOrigin is the warehouse pickup profile stamped onto every
// shipment. UnitWeightGrams is the billed weight per ordered unit.
type ShipmentOrigin struct {
	PickupPin       string
	UnitWeightGrams int
}

// OrderService handles order placement and the status lifecycle
type OrderService struct {
	store          *store.Store
	reserver       *StockReserver
	eventPublisher *broker.EventPublisher
	coupons        *CouponService
	payments       PaymentGateway
	shipper        ShippingGateway
	origin         ShipmentOrigin
	logger         *zap.Logger
}

// NewOrderService creates a new order service. The payment and shipping
// gateways may be nil, disabling gateway-backed methods and shipment
// creation respectively.
func NewOrderService(
	store *store.Store,
	reserver *StockReserver,
	eventPublisher *broker.EventPublisher,
	coupons *CouponService,
	payments PaymentGateway,
	shipper ShippingGateway,
	origin ShipmentOrigin,
) *OrderService {
	return &OrderService{
		store:          store,
		reserver:       reserver,
		eventPublisher: eventPublisher,
		coupons:        coupons,
		payments:       payments,
		shipper:        shipper,
		origin:         origin,
		logger:         util.GetLogger(),
	}
}

// ShippingAddress is the delivery address captured on the order
type ShippingAddress struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Line  string `json:"line" binding:"required"`
	City  string `json:"city" binding:"required"`
	Pin   string `json:"pin" binding:"required"`
}

// CreateOrderRequest represents a request to create an order. When
// Items is empty the order is materialized from the user's cart.
type CreateOrderRequest struct {
	Items          []OrderItemRequest `json:"items"`
	Address        ShippingAddress    `json:"address" binding:"required"`
	PaymentMethod  string             `json:"payment_method" binding:"required,oneof=COD RAZORPAY"`
	CouponCode     string             `json:"coupon_code,omitempty"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
	TotalAmount    int64  `json:"total_amount"`
	Discount       int64  `json:"discount,omitempty"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
}

// CreateOrder materializes an order from explicit items or the user's
// cart. Stock is reserved line by line before any row is written; the
// order, its item snapshot and its payment record then commit in one
// transaction so a partial failure leaves nothing behind.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existingOrder, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existingOrder != nil {
		s.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existingOrder.ID))
		return &CreateOrderResponse{
			OrderID:     existingOrder.ID,
			Status:      existingOrder.Status,
			TotalAmount: existingOrder.TotalAmount,
		}, nil
	}

	items, fromCart, err := s.resolveItems(ctx, userID, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	subtotal := orderSubtotal(items)

	var discount int64
	if req.CouponCode != "" {
		coupon, err := s.coupons.Validate(ctx, req.CouponCode, subtotal)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("invalid_coupon").Inc()
			return nil, err
		}
		discount = ComputeDiscount(coupon, subtotal)
	}
	total := subtotal - discount

	if err := s.reserveStock(ctx, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("reservation_failed").Inc()
		return nil, err
	}

	payment := &models.Payment{
		Amount: total,
		Method: req.PaymentMethod,
		Status: models.PaymentStatusPending,
	}

	if req.PaymentMethod == models.PaymentMethodRazorpay {
		if s.payments == nil {
			s.compensateReservations(ctx, items)
			return nil, fmt.Errorf("payment gateway not configured")
		}
		remote, err := s.payments.CreateOrder(ctx, total, "INR", req.IdempotencyKey)
		if err != nil {
			s.compensateReservations(ctx, items)
			util.OrdersFailedTotal.WithLabelValues("gateway_error").Inc()
			return nil, fmt.Errorf("failed to create gateway order: %w", err)
		}
		payment.GatewayOrderID = remote.ID
	}

	order := &models.Order{
		UserID:         userID,
		TotalAmount:    total,
		Discount:       discount,
		CouponCode:     req.CouponCode,
		Status:         models.OrderStatusPending,
		ShippingName:   req.Address.Name,
		ShippingPhone:  req.Address.Phone,
		ShippingLine:   req.Address.Line,
		ShippingCity:   req.Address.City,
		ShippingPin:    req.Address.Pin,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.store.CreateOrderTx(ctx, order, items, payment); err != nil {
		s.compensateReservations(ctx, items)
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.String("payment_method", payment.Method))

	if req.CouponCode != "" {
		if err := s.coupons.Consume(ctx, req.CouponCode); err != nil {
			s.logger.Error("Failed to consume coupon",
				zap.String("code", req.CouponCode), zap.Error(err))
		}
	}

	if fromCart {
		if err := s.clearUserCart(ctx, userID); err != nil {
			s.logger.Error("Failed to clear cart after checkout",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	s.publishOrderEvents(ctx, order, payment, items)

	return &CreateOrderResponse{
		OrderID:        order.ID,
		Status:         order.Status,
		TotalAmount:    order.TotalAmount,
		Discount:       order.Discount,
		GatewayOrderID: payment.GatewayOrderID,
	}, nil
}

// resolveItems builds the order line snapshot either from the request
// or, when no items are given, from the user's cart. Cart lines keep
// their price-at-add-time; explicit items are priced at current catalog
// price.
func (s *OrderService) resolveItems(ctx context.Context, userID int64, reqItems []OrderItemRequest) ([]models.OrderItem, bool, error) {
	if len(reqItems) == 0 {
		cart, err := s.store.GetCartByUserID(ctx, userID)
		if err == store.ErrCartNotFound {
			return nil, false, ErrEmptyCart
		}
		if err != nil {
			return nil, false, err
		}

		cartItems, err := s.store.GetCartItems(ctx, cart.ID)
		if err != nil {
			return nil, false, err
		}
		if len(cartItems) == 0 {
			return nil, false, ErrEmptyCart
		}

		items := make([]models.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			items = append(items, models.OrderItem{
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				UnitPrice: ci.UnitPrice,
				Subtotal:  ci.UnitPrice * int64(ci.Quantity),
			})
		}
		return items, true, nil
	}

	products, err := s.validateOrderItems(ctx, reqItems)
	if err != nil {
		return nil, false, err
	}

	items := make([]models.OrderItem, 0, len(reqItems))
	for _, ri := range reqItems {
		product := products[ri.ProductID]
		items = append(items, models.OrderItem{
			ProductID: ri.ProductID,
			Quantity:  ri.Quantity,
			UnitPrice: product.Price,
			Subtotal:  product.Price * int64(ri.Quantity),
		})
	}
	return items, false, nil
}

// reserveStock holds stock for every order line, compensating the lines
// already held when one fails.
func (s *OrderService) reserveStock(ctx context.Context, items []models.OrderItem) error {
	start := time.Now()
	defer func() {
		util.InventoryReserveLatency.Observe(time.Since(start).Seconds())
	}()

	for i, item := range items {
		success, err := s.reserver.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			util.InventoryReservationsFailed.WithLabelValues("error").Inc()
			s.compensateReservations(ctx, items[:i])
			return fmt.Errorf("failed to reserve stock for product %d: %w", item.ProductID, err)
		}

		if !success {
			util.InventoryReservationsFailed.WithLabelValues("insufficient_stock").Inc()
			s.compensateReservations(ctx, items[:i])
			return fmt.Errorf("product %d: %w", item.ProductID, store.ErrInsufficientStock)
		}
	}

	return nil
}

// compensateReservations rolls back stock holds
func (s *OrderService) compensateReservations(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.reserver.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to compensate reservation",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}
}

// validateOrderItems validates that all products exist and are active
func (s *OrderService) validateOrderItems(ctx context.Context, items []OrderItemRequest) (map[int64]*models.Product, error) {
	productIDs := make([]int64, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	productMap := make(map[int64]*models.Product)
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	for _, item := range items {
		if _, ok := productMap[item.ProductID]; !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, store.ErrProductNotFound)
		}
	}

	return productMap, nil
}

func (s *OrderService) clearUserCart(ctx context.Context, userID int64) error {
	cart, err := s.store.GetCartByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.store.ClearCart(ctx, cart.ID)
}

func (s *OrderService) publishOrderEvents(ctx context.Context, order *models.Order, payment *models.Payment, items []models.OrderItem) {
	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	created := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: payment.Method,
		Items:         eventItems,
	}
	if err := s.eventPublisher.PublishOrderCreated(ctx, created); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	reserved := &models.OrderReservedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderReserved,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: payment.Method,
		Items:         eventItems,
	}
	if err := s.eventPublisher.PublishOrderReserved(ctx, reserved); err != nil {
		s.logger.Error("Failed to publish OrderReserved event", zap.Error(err))
	}
}

// orderSubtotal sums line subtotals
func orderSubtotal(items []models.OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal
	}
	return total
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// ListOrders retrieves a user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.GetOrdersByUserID(ctx, userID, limit, offset)
}

// UpdateStatus moves an order along its lifecycle. The transition is
// validated against the status machine and applied with a guard on the
// current status so two concurrent updates cannot both win. Cancelling
// an order whose payment has not succeeded releases its stock holds.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, to string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, to, ErrInvalidTransition)
	}

	applied, err := s.store.TransitionOrderStatus(ctx, orderID, order.Status, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, to, ErrInvalidTransition)
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(order.Status, to).Inc()
	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", to))

	switch to {
	case models.OrderStatusCancelled:
		s.releaseOrderStock(ctx, orderID)
	case models.OrderStatusShipped:
		s.createShipment(ctx, order)
	case models.OrderStatusDelivered:
		s.settleCODPayment(ctx, orderID)
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:    orderID,
		UserID:     order.UserID,
		FromStatus: order.Status,
		ToStatus:   to,
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	order.Status = to
	return order, nil
}

func (s *OrderService) releaseOrderStock(ctx context.Context, orderID int64) {
	payment, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if err == nil && payment.Status == models.PaymentStatusSuccess {
		// Paid stock was already committed; a cancellation after capture
		// is settled by the refund flow, not by restocking here.
		return
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to load items for stock release",
			zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	for _, item := range items {
		if err := s.reserver.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to release stock on cancellation",
				zap.Int64("order_id", orderID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}
}

// settleCODPayment marks a cash-on-delivery payment collected once its
// order is delivered. Gateway payments settle through callbacks and
// are left alone here.
func (s *OrderService) settleCODPayment(ctx context.Context, orderID int64) {
	payment, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to load payment for COD settlement",
			zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	if payment.Method != models.PaymentMethodCOD ||
		payment.Status != models.PaymentStatusPending {
		return
	}

	if err := s.store.UpdatePaymentStatus(ctx, payment.ID,
		models.PaymentStatusSuccess, payment.GatewayPaymentID, payment.Signature); err != nil {
		s.logger.Error("Failed to settle COD payment",
			zap.Int64("order_id", orderID), zap.Error(err))
		return
	}

	util.PaymentSuccessTotal.Inc()
	s.logger.Info("COD payment collected on delivery", zap.Int64("order_id", orderID))
}

// buildShipmentRequest assembles the gateway shipment for an order.
// Billed weight is the ordered unit count times the per-unit weight
// from the origin profile.
func buildShipmentRequest(order *models.Order, payment *models.Payment, items []models.OrderItem, origin ShipmentOrigin) *gateway.ShipmentRequest {
	weight := 0
	for _, item := range items {
		weight += item.Quantity * origin.UnitWeightGrams
	}

	return &gateway.ShipmentRequest{
		OrderID:       order.ID,
		PickupPin:     origin.PickupPin,
		DeliveryPin:   order.ShippingPin,
		WeightGrams:   weight,
		CashOnDeliver: payment.Method == models.PaymentMethodCOD,
	}
}

func (s *OrderService) createShipment(ctx context.Context, order *models.Order) {
	if s.shipper == nil {
		return
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to load payment for shipment",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to load items for shipment",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	shipment, err := s.shipper.CreateShipment(ctx, buildShipmentRequest(order, payment, items, s.origin))
	if err != nil {
		s.logger.Error("Failed to create shipment",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	s.logger.Info("Shipment created for order",
		zap.Int64("order_id", order.ID),
		zap.Int64("shipment_id", shipment.ShipmentID),
		zap.String("awb", shipment.AWB))
}
