package api

import (
	"net/http"
	"strconv"

	"martxmart/internal/service"

	"github.com/gin-gonic/gin"
)

// listProducts returns a page of active products. A sku query narrows
// the listing to the single matching product.
func (h *Handler) listProducts(c *gin.Context) {
	if sku := c.Query("sku"); sku != "" {
		product, err := h.store.GetProductBySKU(c.Request.Context(), sku)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": []interface{}{product}, "count": 1})
		return
	}

	limit, offset := pagination(c)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	products, err := h.store.GetProducts(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// getProduct returns one active product
func (h *Handler) getProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.store.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deactivateProduct pulls a product from the catalog. Rows are kept
// for existing order and review references.
func (h *Handler) deactivateProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeactivateProduct(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

// validateCoupon checks a coupon against an order amount without
// consuming it.
func (h *Handler) validateCoupon(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	coupon, err := h.couponService.Validate(c.Request.Context(), c.Param("code"), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coupon":   coupon,
		"discount": service.ComputeDiscount(coupon, amount),
	})
}
