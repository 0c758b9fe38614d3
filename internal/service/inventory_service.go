package service

import (
	"context"
	"fmt"
	"time"

	"martxmart/internal/broker"
	"martxmart/internal/models"
	"martxmart/internal/store"
	"martxmart/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService manages the per-franchise stock ledger
type InventoryService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store *store.Store, eventPublisher *broker.EventPublisher) *InventoryService {
	return &InventoryService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// AdjustRequest describes a manual stock adjustment
type AdjustRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=INCREASE DECREASE"`
	Quantity  int    `json:"quantity" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// AdjustResult is the persisted ledger entry plus the resulting quantity
type AdjustResult struct {
	Adjustment  *models.StockAdjustment `json:"adjustment"`
	NewQuantity int                     `json:"new_quantity"`
}

// Adjust applies a stock adjustment for a franchise. A decrease that
// would take the ledger below zero is rejected without writing
// anything; the check and the write are one conditional statement, so
// concurrent adjustments cannot lose updates.
func (is *InventoryService) Adjust(ctx context.Context, franchiseID, adjustedBy int64, req *AdjustRequest) (*AdjustResult, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Adjust")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, ErrAdjustmentQuantity
	}

	if _, err := is.store.GetProductByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	adj := &models.StockAdjustment{
		Reference:   fmt.Sprintf("ADJ-%s", uuid.New().String()[:8]),
		ProductID:   req.ProductID,
		FranchiseID: franchiseID,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		AdjustedBy:  adjustedBy,
	}

	newQuantity, err := is.store.AdjustInventoryTx(ctx, adj)
	if err != nil {
		return nil, err
	}

	util.InventoryAdjustmentsTotal.WithLabelValues(req.Type).Inc()
	is.logger.Info("Inventory adjusted",
		zap.String("reference", adj.Reference),
		zap.Int64("product_id", req.ProductID),
		zap.Int64("franchise_id", franchiseID),
		zap.String("type", req.Type),
		zap.Int("quantity", req.Quantity),
		zap.Int("new_quantity", newQuantity))

	is.publishAdjusted(ctx, adj, newQuantity)

	return &AdjustResult{Adjustment: adj, NewQuantity: newQuantity}, nil
}

// TransferRequest describes a stock movement between franchises
type TransferRequest struct {
	ProductID       int64 `json:"product_id" binding:"required"`
	FromFranchiseID int64 `json:"from_franchise_id" binding:"required"`
	ToFranchiseID   int64 `json:"to_franchise_id" binding:"required"`
	Quantity        int   `json:"quantity" binding:"required,min=1"`
}

// Transfer moves stock between two franchise ledgers atomically and
// records the movement. Insufficient source stock rejects the whole
// transfer with nothing written.
func (is *InventoryService) Transfer(ctx context.Context, initiatedBy int64, req *TransferRequest) (*models.StockTransfer, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Transfer")
	defer span.End()

	if req.FromFranchiseID == req.ToFranchiseID {
		return nil, ErrSameFranchise
	}

	if _, err := is.store.GetProductByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	transfer := &models.StockTransfer{
		Reference:       fmt.Sprintf("TRF-%s", uuid.New().String()[:8]),
		ProductID:       req.ProductID,
		FromFranchiseID: req.FromFranchiseID,
		ToFranchiseID:   req.ToFranchiseID,
		Quantity:        req.Quantity,
		InitiatedBy:     initiatedBy,
	}

	if err := is.store.TransferInventoryTx(ctx, transfer); err != nil {
		return nil, err
	}

	util.InventoryTransfersTotal.Inc()
	is.logger.Info("Stock transferred",
		zap.String("reference", transfer.Reference),
		zap.Int64("product_id", req.ProductID),
		zap.Int64("from", req.FromFranchiseID),
		zap.Int64("to", req.ToFranchiseID),
		zap.Int("quantity", req.Quantity))

	return transfer, nil
}

// GetInventory retrieves the ledger row for a product at a franchise
func (is *InventoryService) GetInventory(ctx context.Context, productID, franchiseID int64) (*models.Inventory, error) {
	return is.store.GetInventory(ctx, productID, franchiseID)
}

// LowStock lists ledger rows at or below their minimum level
func (is *InventoryService) LowStock(ctx context.Context, franchiseID int64) ([]models.Inventory, error) {
	return is.store.GetLowStockInventory(ctx, franchiseID)
}

// ListAdjustments lists ledger entries for a product
func (is *InventoryService) ListAdjustments(ctx context.Context, productID int64, limit, offset int) ([]models.StockAdjustment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return is.store.GetAdjustmentsByProduct(ctx, productID, limit, offset)
}

// ListTransfers lists transfers touching a franchise, either side
func (is *InventoryService) ListTransfers(ctx context.Context, franchiseID int64, limit, offset int) ([]models.StockTransfer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return is.store.GetTransfersByFranchise(ctx, franchiseID, limit, offset)
}

func (is *InventoryService) publishAdjusted(ctx context.Context, adj *models.StockAdjustment, newQuantity int) {
	event := &models.InventoryAdjustedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeInventoryAdjusted,
			Timestamp: time.Now(),
		},
		Reference:   adj.Reference,
		ProductID:   adj.ProductID,
		FranchiseID: adj.FranchiseID,
		Type:        adj.Type,
		Quantity:    adj.Quantity,
		NewQuantity: newQuantity,
	}
	if err := is.eventPublisher.PublishInventoryAdjusted(ctx, event); err != nil {
		is.logger.Error("Failed to publish InventoryAdjusted event", zap.Error(err))
	}
}
