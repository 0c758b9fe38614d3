package service

import (
	"context"
	"fmt"

	"martxmart/internal/models"
	"martxmart/internal/store"
	"martxmart/internal/util"

	"go.uber.org/zap"
)

// SagaOrchestrator settles orders after payment events. It is driven by
// the Kafka workers and is idempotent: every event is checked against
// the processed_events table before it can touch state.
type SagaOrchestrator struct {
	store    *store.Store
	reserver *StockReserver
	logger   *zap.Logger
}

// NewSagaOrchestrator creates a new saga orchestrator
func NewSagaOrchestrator(store *store.Store, reserver *StockReserver) *SagaOrchestrator {
	return &SagaOrchestrator{
		store:    store,
		reserver: reserver,
		logger:   util.GetLogger(),
	}
}

// HandlePaymentCaptured confirms the order after a captured payment:
// the status moves PENDING -> PROCESSING and the stock holds for its
// lines are committed.
func (so *SagaOrchestrator) HandlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	ctx, span := util.StartSpan(ctx, "SagaOrchestrator.HandlePaymentCaptured")
	defer span.End()

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		so.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	so.logger.Info("Handling payment capture",
		zap.Int64("order_id", event.OrderID),
		zap.String("gateway_payment_id", event.GatewayPaymentID))

	// The CAS transition decides whether this event still owns the
	// order. If the order already left PENDING (cancelled by staff, or
	// a concurrent capture won) its stock holds were settled by whoever
	// moved it, so committing here would settle them twice.
	applied, err := so.store.TransitionOrderStatus(ctx, event.OrderID,
		models.OrderStatusPending, models.OrderStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if !applied {
		so.logger.Warn("Order not in PENDING at payment capture, skipping stock commit",
			zap.Int64("order_id", event.OrderID))
	} else {
		util.OrderStatusTransitionsTotal.WithLabelValues(
			models.OrderStatusPending, models.OrderStatusProcessing).Inc()

		items, err := so.store.GetOrderItemsByOrderID(ctx, event.OrderID)
		if err != nil {
			return fmt.Errorf("failed to get order items: %w", err)
		}

		for _, item := range items {
			if err := so.reserver.Commit(ctx, item.ProductID, item.Quantity); err != nil {
				so.logger.Error("Failed to commit stock",
					zap.Int64("product_id", item.ProductID),
					zap.Error(err))
			}
		}
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	so.logger.Info("Order confirmed", zap.Int64("order_id", event.OrderID))
	return nil
}

// HandlePaymentFailed cancels the order and releases its stock holds
// (compensation).
func (so *SagaOrchestrator) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "SagaOrchestrator.HandlePaymentFailed")
	defer span.End()

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		so.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	so.logger.Warn("Handling payment failure - starting compensation",
		zap.Int64("order_id", event.OrderID),
		zap.String("reason", event.Reason))

	// Win the CAS transition before touching stock. A cancellation that
	// already moved the order out of PENDING released these holds, and
	// releasing them again would inflate catalog stock.
	applied, err := so.store.TransitionOrderStatus(ctx, event.OrderID,
		models.OrderStatusPending, models.OrderStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if applied {
		util.OrderStatusTransitionsTotal.WithLabelValues(
			models.OrderStatusPending, models.OrderStatusCancelled).Inc()

		items, err := so.store.GetOrderItemsByOrderID(ctx, event.OrderID)
		if err != nil {
			return fmt.Errorf("failed to get order items: %w", err)
		}

		for _, item := range items {
			if err := so.reserver.Release(ctx, item.ProductID, item.Quantity); err != nil {
				so.logger.Error("Failed to release stock during compensation",
					zap.Int64("product_id", item.ProductID),
					zap.Error(err))
			}
		}
	} else {
		so.logger.Warn("Order not in PENDING at payment failure, skipping stock release",
			zap.Int64("order_id", event.OrderID))
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	so.logger.Info("Order cancelled and compensated", zap.Int64("order_id", event.OrderID))
	return nil
}

// HandleOrderReserved acknowledges cash-on-delivery orders: there is no
// gateway capture to wait for, so the order moves straight to
// PROCESSING while its payment stays PENDING until delivery.
func (so *SagaOrchestrator) HandleOrderReserved(ctx context.Context, event *models.OrderReservedEvent) error {
	ctx, span := util.StartSpan(ctx, "SagaOrchestrator.HandleOrderReserved")
	defer span.End()

	if event.PaymentMethod != models.PaymentMethodCOD {
		return nil
	}

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		return nil
	}

	applied, err := so.store.TransitionOrderStatus(ctx, event.OrderID,
		models.OrderStatusPending, models.OrderStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if applied {
		util.OrderStatusTransitionsTotal.WithLabelValues(
			models.OrderStatusPending, models.OrderStatusProcessing).Inc()
		so.logger.Info("COD order acknowledged", zap.Int64("order_id", event.OrderID))
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}
