package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createReviewRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment,omitempty"`
}

// createReview records a review for a delivered product
func (h *Handler) createReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), identityFrom(c).UserID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// listReviews returns a page of reviews for a product
func (h *Handler) listReviews(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit, offset := pagination(c)
	reviews, err := h.reviewService.ListReviews(c.Request.Context(), productID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}
