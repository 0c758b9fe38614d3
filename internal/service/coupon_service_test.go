package service

import (
	"testing"

	"martxmart/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeDiscountPercent(t *testing.T) {
	coupon := &models.Coupon{Type: models.CouponTypePercent, Value: 10}

	assert.Equal(t, int64(1000), ComputeDiscount(coupon, 10000))
}

func TestComputeDiscountPercentCapped(t *testing.T) {
	coupon := &models.Coupon{Type: models.CouponTypePercent, Value: 50, MaxDiscount: 2000}

	assert.Equal(t, int64(2000), ComputeDiscount(coupon, 10000))
}

func TestComputeDiscountFixed(t *testing.T) {
	coupon := &models.Coupon{Type: models.CouponTypeFixed, Value: 500}

	assert.Equal(t, int64(500), ComputeDiscount(coupon, 10000))
}

func TestComputeDiscountNeverExceedsAmount(t *testing.T) {
	coupon := &models.Coupon{Type: models.CouponTypeFixed, Value: 5000}

	assert.Equal(t, int64(1000), ComputeDiscount(coupon, 1000))
}

func TestComputeDiscountUnknownType(t *testing.T) {
	coupon := &models.Coupon{Type: "BOGOF", Value: 100}

	assert.Equal(t, int64(0), ComputeDiscount(coupon, 10000))
}
