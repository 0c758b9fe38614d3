package store

import (
	"context"
	"fmt"

	"martxmart/internal/models"
)

// CreateReview inserts a review and recomputes the product's aggregate
// rating in the same transaction. The unique (user_id, product_id)
// constraint is the authoritative duplicate guard; an application-level
// pre-check alone would race.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, review, `
		INSERT INTO reviews (user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		review.UserID, review.ProductID, review.Rating, review.Comment)
	if err != nil {
		if IsUniqueViolation(err, "reviews_user_id_product_id_key") {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.RecomputeProductRating(ctx, tx, review.ProductID); err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	return tx.Commit()
}

// HasReview reports whether the user already reviewed the product
func (s *Store) HasReview(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2)",
		userID, productID)
	return exists, err
}

// GetReviewsByProductID retrieves reviews for a product, newest first
func (s *Store) GetReviewsByProductID(ctx context.Context, productID int64, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		productID, limit, offset)
	return reviews, err
}
