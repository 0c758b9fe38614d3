package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"martxmart/internal/redisclient"
	"martxmart/internal/store"
	"martxmart/internal/util"

	"go.uber.org/zap"
)

// StockReserver holds and settles catalog stock for orders. Redis is
// the fast path; the database conditional update remains the source of
// truth and the fallback when Redis is unavailable.
type StockReserver struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewStockReserver creates a new stock reserver
func NewStockReserver(store *store.Store, redis *redisclient.Client) *StockReserver {
	return &StockReserver{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Reserve holds stock for a product. Returns false when stock is
// insufficient.
func (sr *StockReserver) Reserve(ctx context.Context, productID int64, quantity int) (bool, error) {
	ctx, span := util.StartSpan(ctx, "StockReserver.Reserve")
	defer span.End()

	success, err := sr.redis.ReserveStock(ctx, productID, quantity)
	if err != nil {
		sr.logger.Warn("Redis reservation failed, falling back to DB",
			zap.Int64("product_id", productID),
			zap.Error(err))

		return sr.reserveDB(ctx, productID, quantity)
	}

	if !success {
		return false, nil
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sr.store.ReserveProductStock(ctx, productID, quantity); err != nil {
			sr.logger.Error("Failed to sync reservation to DB",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
	}()

	return true, nil
}

func (sr *StockReserver) reserveDB(ctx context.Context, productID int64, quantity int) (bool, error) {
	err := sr.store.ReserveProductStock(ctx, productID, quantity)
	if errors.Is(err, store.ErrInsufficientStock) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release returns held stock (compensation)
func (sr *StockReserver) Release(ctx context.Context, productID int64, quantity int) error {
	ctx, span := util.StartSpan(ctx, "StockReserver.Release")
	defer span.End()

	if err := sr.redis.ReleaseStock(ctx, productID, quantity); err != nil {
		sr.logger.Error("Failed to release stock in Redis",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}

	return sr.store.ReleaseProductStock(ctx, productID, quantity)
}

// Commit finalizes held stock after payment capture. The database
// decrement already happened at reservation time, so only the Redis
// reserved counter needs settling.
func (sr *StockReserver) Commit(ctx context.Context, productID int64, quantity int) error {
	ctx, span := util.StartSpan(ctx, "StockReserver.Commit")
	defer span.End()

	if err := sr.redis.CommitStock(ctx, productID, quantity); err != nil {
		sr.logger.Error("Failed to commit stock in Redis",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}

	return nil
}

const (
	stockSyncLockKey = "stock_sync"
	stockSyncLockTTL = 5 * time.Minute
)

// SyncToRedis seeds Redis counters from the database at startup. A
// short-lived lock keeps concurrently booting instances from seeding
// over each other's counters.
func (sr *StockReserver) SyncToRedis(ctx context.Context) error {
	acquired, err := sr.redis.AcquireLock(ctx, stockSyncLockKey, stockSyncLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire stock sync lock: %w", err)
	}
	if !acquired {
		sr.logger.Info("Stock sync already running on another instance, skipping")
		return nil
	}
	defer func() {
		if err := sr.redis.ReleaseLock(ctx, stockSyncLockKey); err != nil {
			sr.logger.Error("Failed to release stock sync lock", zap.Error(err))
		}
	}()

	sr.logger.Info("Starting stock sync to Redis")

	const pageSize = 500
	count := 0
	for offset := 0; ; offset += pageSize {
		products, err := sr.store.GetProducts(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		if len(products) == 0 {
			break
		}

		for _, product := range products {
			if err := sr.redis.InitInventory(ctx, product.ID, product.Stock, 0); err != nil {
				sr.logger.Error("Failed to init Redis stock",
					zap.Int64("product_id", product.ID),
					zap.Error(err))
				continue
			}
			count++
		}
	}

	sr.logger.Info("Stock sync completed", zap.Int("count", count))
	return nil
}
