package service

import (
	"context"
	"time"

	"martxmart/internal/models"
	"martxmart/internal/store"
)

// CouponService validates coupon codes and computes discounts
type CouponService struct {
	store *store.Store
	now   func() time.Time
}

// NewCouponService creates a new coupon service
func NewCouponService(store *store.Store) *CouponService {
	return &CouponService{store: store, now: time.Now}
}

// Validate checks a code against its window, usage cap and order
// minimum, returning the coupon when it applies.
func (cs *CouponService) Validate(ctx context.Context, code string, orderAmount int64) (*models.Coupon, error) {
	coupon, err := cs.store.GetCouponByCode(ctx, code)
	if err == store.ErrCouponNotFound {
		return nil, ErrCouponNotActive
	}
	if err != nil {
		return nil, err
	}

	now := cs.now()
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return nil, ErrCouponExpired
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, ErrCouponExhausted
	}
	if orderAmount < coupon.MinOrder {
		return nil, ErrCouponMinOrder
	}

	return coupon, nil
}

// Consume burns one use of a validated coupon
func (cs *CouponService) Consume(ctx context.Context, code string) error {
	ok, err := cs.store.ConsumeCoupon(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCouponExhausted
	}
	return nil
}

// ComputeDiscount returns the discount a coupon grants on an amount,
// clamped to the coupon's cap and never exceeding the amount itself.
func ComputeDiscount(coupon *models.Coupon, amount int64) int64 {
	var discount int64
	switch coupon.Type {
	case models.CouponTypePercent:
		discount = amount * coupon.Value / 100
	case models.CouponTypeFixed:
		discount = coupon.Value
	default:
		return 0
	}

	if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
		discount = coupon.MaxDiscount
	}
	if discount > amount {
		discount = amount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
