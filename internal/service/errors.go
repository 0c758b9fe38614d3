package service

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidSignature   = errors.New("payment signature verification failed")
	ErrReviewNotEligible  = errors.New("no delivered order found for this product")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrCouponNotActive    = errors.New("coupon is not active or does not exist")
	ErrCouponExpired      = errors.New("coupon is outside its validity window")
	ErrCouponMinOrder     = errors.New("order amount below coupon minimum")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrAdjustmentQuantity = errors.New("adjustment quantity must be positive")
	ErrSameFranchise      = errors.New("transfer source and destination must differ")
)
