package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

// PaymentFetcher retrieves remote payment state for status polling.
// Satisfied by gateway.RazorpayClient.
type PaymentFetcher interface {
	FetchPayment(ctx context.Context, paymentID string) (*gateway.GatewayPayment, error)
}

// PaymentService reconciles local payment state with the gateway
type PaymentService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	fetcher        PaymentFetcher
	webhookSecret  string
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store *store.Store, eventPublisher *broker.EventPublisher, fetcher PaymentFetcher, webhookSecret string) *PaymentService {
	return &PaymentService{
		store:          store,
		eventPublisher: eventPublisher,
		fetcher:        fetcher,
		webhookSecret:  webhookSecret,
		logger:         util.GetLogger(),
	}
}

// VerifySignature checks a gateway callback signature: hex-encoded
// HMAC-SHA256 over "<gatewayOrderID>|<gatewayPaymentID>" with the
// shared secret. Comparison is constant time.
func VerifySignature(gatewayOrderID, gatewayPaymentID, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// nextPaymentStatus maps a gateway-reported status onto the local
// payment state machine. A PENDING payment settles to SUCCESS, FAILED
// or REFUNDED; a payment that settled SUCCESS can still move to
// REFUNDED on a later gateway event. Every other combination is a
// no-op, which is what makes replayed callbacks harmless.
func nextPaymentStatus(current, gatewayStatus string) (string, bool) {
	switch current {
	case models.PaymentStatusPending:
		switch gatewayStatus {
		case "", "captured", "authorized":
			return models.PaymentStatusSuccess, true
		case "refunded":
			return models.PaymentStatusRefunded, true
		default:
			return models.PaymentStatusFailed, true
		}
	case models.PaymentStatusSuccess:
		if gatewayStatus == "refunded" {
			return models.PaymentStatusRefunded, true
		}
	}
	return current, false
}

// CallbackRequest is the body of a gateway payment callback
type CallbackRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
	Status           string `json:"status,omitempty"`
}

// HandleCallback processes a signed gateway callback. The signature is
// verified before any state is touched; a mismatch changes nothing.
// Settled payments only move again for a refund event, so replayed
// callbacks are harmless.
func (ps *PaymentService) HandleCallback(ctx context.Context, req *CallbackRequest) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleCallback")
	defer span.End()

	if !VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, ps.webhookSecret, req.Signature) {
		util.PaymentCallbacksTotal.WithLabelValues("invalid_signature").Inc()
		ps.logger.Warn("Rejected callback with invalid signature",
			zap.String("gateway_order_id", req.GatewayOrderID))
		return nil, ErrInvalidSignature
	}

	payment, err := ps.store.GetPaymentByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}

	status, ok := nextPaymentStatus(payment.Status, req.Status)
	if !ok {
		util.PaymentCallbacksTotal.WithLabelValues("replay").Inc()
		ps.logger.Info("Ignoring callback for settled payment",
			zap.Int64("payment_id", payment.ID),
			zap.String("status", payment.Status))
		return payment, nil
	}

	if err := ps.store.UpdatePaymentStatus(ctx, payment.ID, status, req.GatewayPaymentID, req.Signature); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	payment.Status = status
	payment.GatewayPaymentID = req.GatewayPaymentID

	util.PaymentCallbacksTotal.WithLabelValues("accepted").Inc()

	switch status {
	case models.PaymentStatusSuccess:
		util.PaymentSuccessTotal.Inc()
		event := &models.PaymentCapturedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentCaptured,
				Timestamp: time.Now(),
			},
			OrderID:          payment.OrderID,
			PaymentID:        payment.ID,
			Amount:           payment.Amount,
			GatewayPaymentID: req.GatewayPaymentID,
		}
		if err := ps.eventPublisher.PublishPaymentCaptured(ctx, event); err != nil {
			ps.logger.Error("Failed to publish PaymentCaptured event", zap.Error(err))
		}
	case models.PaymentStatusFailed:
		util.PaymentFailedTotal.Inc()
		event := &models.PaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID:   payment.OrderID,
			PaymentID: payment.ID,
			Reason:    "gateway_reported_" + req.Status,
		}
		if err := ps.eventPublisher.PublishPaymentFailed(ctx, event); err != nil {
			ps.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
		}
	}

	return payment, nil
}

// PollStatus returns the payment for an order, refreshing a pending
// gateway payment from the gateway first when possible.
func (ps *PaymentService) PollStatus(ctx context.Context, orderID int64) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.PollStatus")
	defer span.End()

	payment, err := ps.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if payment.Status != models.PaymentStatusPending ||
		payment.GatewayPaymentID == "" || ps.fetcher == nil {
		return payment, nil
	}

	remote, err := ps.fetcher.FetchPayment(ctx, payment.GatewayPaymentID)
	if err != nil {
		ps.logger.Warn("Gateway status fetch failed, returning local state",
			zap.Int64("payment_id", payment.ID), zap.Error(err))
		return payment, nil
	}

	var status string
	switch remote.Status {
	case "captured":
		status = models.PaymentStatusSuccess
	case "failed":
		status = models.PaymentStatusFailed
	case "refunded":
		status = models.PaymentStatusRefunded
	default:
		return payment, nil
	}

	if err := ps.store.UpdatePaymentStatus(ctx, payment.ID, status, payment.GatewayPaymentID, payment.Signature); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	payment.Status = status

	return payment, nil
}

// GetPayment retrieves payment for an order
func (ps *PaymentService) GetPayment(ctx context.Context, orderID int64) (*models.Payment, error) {
	return ps.store.GetPaymentByOrderID(ctx, orderID)
}
