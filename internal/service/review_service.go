package service

import (
	"context"

	"martxmart/internal/models"
	"martxmart/internal/store"
	"martxmart/internal/util"

	"go.uber.org/zap"
)

// ReviewService gates and records product reviews
type ReviewService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store *store.Store) *ReviewService {
	return &ReviewService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateReview records a review if the user has a delivered order
// containing the product and has not reviewed it before. The duplicate
// pre-check is advisory; the unique constraint in the store is what
// actually holds under concurrent submissions. The product's aggregate
// rating is recomputed as part of the insert.
func (rs *ReviewService) CreateReview(ctx context.Context, userID, productID int64, rating int, comment string) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.CreateReview")
	defer span.End()

	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := rs.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	delivered, err := rs.store.HasDeliveredOrderItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !delivered {
		util.ReviewsRejectedTotal.WithLabelValues("not_delivered").Inc()
		return nil, ErrReviewNotEligible
	}

	exists, err := rs.store.HasReview(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		util.ReviewsRejectedTotal.WithLabelValues("duplicate").Inc()
		return nil, store.ErrDuplicateReview
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := rs.store.CreateReview(ctx, review); err != nil {
		if err == store.ErrDuplicateReview {
			util.ReviewsRejectedTotal.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	util.ReviewsCreatedTotal.Inc()
	rs.logger.Info("Review created",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("rating", rating))

	return review, nil
}

// ListReviews retrieves reviews for a product, newest first
func (rs *ReviewService) ListReviews(ctx context.Context, productID int64, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return rs.store.GetReviewsByProductID(ctx, productID, limit, offset)
}
