package worker

import (
	"context"
	"log"

	"martxmart/internal/broker"
	"martxmart/internal/service"
)

// OrderWorker consumes payment and reservation events and drives order
// settlement through the saga orchestrator.
type OrderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewOrderWorker creates a new order worker
func NewOrderWorker(consumer *broker.Consumer, saga *service.SagaOrchestrator) *OrderWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPaymentCaptured(saga.HandlePaymentCaptured)
	eventHandler.OnPaymentFailed(saga.HandlePaymentFailed)
	eventHandler.OnOrderReserved(saga.HandleOrderReserved)

	return &OrderWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *OrderWorker) Start(ctx context.Context) error {
	log.Println("Starting order worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderWorker) Stop() error {
	log.Println("Stopping order worker...")
	return w.consumer.Close()
}
