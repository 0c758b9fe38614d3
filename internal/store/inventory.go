package store

import (
	"context"
	"database/sql"
	"fmt"

	"martxmart/internal/models"
)

// AdjustInventoryTx applies a signed quantity delta to a franchise
// ledger row and writes the adjustment ledger entry in one transaction.
// Decreases are a conditional update so the quantity can never go
// negative under concurrent writers; when the guard does not match,
// nothing is written. Returns the resulting quantity.
func (s *Store) AdjustInventoryTx(ctx context.Context, adj *models.StockAdjustment) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var newQuantity int
	if adj.Type == models.AdjustmentDecrease {
		err = tx.GetContext(ctx, &newQuantity, `
			UPDATE inventory SET quantity = quantity - $1, updated_at = NOW()
			WHERE product_id = $2 AND franchise_id = $3 AND quantity >= $1
			RETURNING quantity`,
			adj.Quantity, adj.ProductID, adj.FranchiseID)
		if err == sql.ErrNoRows {
			// Distinguish a missing row from an insufficient one.
			if _, invErr := s.GetInventory(ctx, adj.ProductID, adj.FranchiseID); invErr != nil {
				return 0, invErr
			}
			return 0, ErrInsufficientStock
		}
	} else {
		err = tx.GetContext(ctx, &newQuantity, `
			INSERT INTO inventory (product_id, franchise_id, quantity)
			VALUES ($2, $3, $1)
			ON CONFLICT (product_id, franchise_id)
			DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at = NOW()
			RETURNING quantity`,
			adj.Quantity, adj.ProductID, adj.FranchiseID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust inventory: %w", err)
	}

	err = tx.GetContext(ctx, adj, `
		INSERT INTO stock_adjustments (reference, product_id, franchise_id, type, quantity, reason, adjusted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
		adj.Reference, adj.ProductID, adj.FranchiseID, adj.Type, adj.Quantity,
		adj.Reason, adj.AdjustedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to record adjustment: %w", err)
	}

	return newQuantity, tx.Commit()
}

// TransferInventoryTx moves stock between two franchise ledger rows and
// writes the transfer ledger entry, all in one transaction. The source
// decrement is conditional, so an insufficient source rolls the whole
// transfer back.
func (s *Store) TransferInventoryTx(ctx context.Context, transfer *models.StockTransfer) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE inventory SET quantity = quantity - $1, updated_at = NOW()
		WHERE product_id = $2 AND franchise_id = $3 AND quantity >= $1`,
		transfer.Quantity, transfer.ProductID, transfer.FromFranchiseID)
	if err != nil {
		return fmt.Errorf("failed to debit source inventory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, invErr := s.GetInventory(ctx, transfer.ProductID, transfer.FromFranchiseID); invErr != nil {
			return invErr
		}
		return ErrInsufficientStock
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (product_id, franchise_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, franchise_id)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		transfer.ProductID, transfer.ToFranchiseID, transfer.Quantity)
	if err != nil {
		return fmt.Errorf("failed to credit destination inventory: %w", err)
	}

	transfer.Status = models.TransferCompleted
	err = tx.GetContext(ctx, transfer, `
		INSERT INTO stock_transfers (reference, product_id, from_franchise_id, to_franchise_id, quantity, status, initiated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
		transfer.Reference, transfer.ProductID, transfer.FromFranchiseID,
		transfer.ToFranchiseID, transfer.Quantity, transfer.Status, transfer.InitiatedBy)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}

	return tx.Commit()
}

// GetAdjustmentsByProduct lists ledger entries for a product, newest first
func (s *Store) GetAdjustmentsByProduct(ctx context.Context, productID int64, limit, offset int) ([]models.StockAdjustment, error) {
	var adjustments []models.StockAdjustment
	err := s.db.SelectContext(ctx, &adjustments,
		"SELECT * FROM stock_adjustments WHERE product_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		productID, limit, offset)
	return adjustments, err
}

// GetTransfersByFranchise lists transfers touching a franchise, newest first
func (s *Store) GetTransfersByFranchise(ctx context.Context, franchiseID int64, limit, offset int) ([]models.StockTransfer, error) {
	var transfers []models.StockTransfer
	err := s.db.SelectContext(ctx, &transfers, `
		SELECT * FROM stock_transfers
		WHERE from_franchise_id = $1 OR to_franchise_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		franchiseID, limit, offset)
	return transfers, err
}
