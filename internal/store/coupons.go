package store

import (
	"context"
	"database/sql"

	"martxmart/internal/models"
)

// GetCouponByCode retrieves an active coupon by code
func (s *Store) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon,
		"SELECT * FROM coupons WHERE code = $1 AND active = TRUE", code)
	if err == sql.ErrNoRows {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ConsumeCoupon increments a coupon's usage counter, guarded against
// exceeding the usage limit. Returns false when the cap is exhausted.
func (s *Store) ConsumeCoupon(ctx context.Context, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE coupons SET used_count = used_count + 1
		WHERE code = $1 AND active = TRUE
		  AND (usage_limit = 0 OR used_count < usage_limit)`,
		code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
