package api

import (
	"net/http"
	"strconv"

	"martxmart/internal/service"

	"github.com/gin-gonic/gin"
)

// adjustInventory applies a stock adjustment for the caller's franchise
func (h *Handler) adjustInventory(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := identityFrom(c)
	result, err := h.inventoryService.Adjust(c.Request.Context(), identity.FranchiseID, identity.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// transferInventory moves stock between two franchises
func (h *Handler) transferInventory(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transfer, err := h.inventoryService.Transfer(c.Request.Context(), identityFrom(c).UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

// getInventory returns one franchise's ledger row for a product
func (h *Handler) getInventory(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	franchiseID := identityFrom(c).FranchiseID
	if raw := c.Query("franchise_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid franchise_id"})
			return
		}
		franchiseID = id
	}

	inv, err := h.inventoryService.GetInventory(c.Request.Context(), productID, franchiseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// lowStock lists ledger rows at or below their minimum stock level
func (h *Handler) lowStock(c *gin.Context) {
	items, err := h.inventoryService.LowStock(c.Request.Context(), identityFrom(c).FranchiseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// listTransfers returns transfers touching a franchise, either side.
// Defaults to the caller's franchise; franchise_id overrides.
func (h *Handler) listTransfers(c *gin.Context) {
	franchiseID := identityFrom(c).FranchiseID
	if raw := c.Query("franchise_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid franchise_id"})
			return
		}
		franchiseID = id
	}

	limit, offset := pagination(c)
	transfers, err := h.inventoryService.ListTransfers(c.Request.Context(), franchiseID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers, "count": len(transfers)})
}

// listAdjustments returns the adjustment ledger for a product
func (h *Handler) listAdjustments(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
		return
	}

	limit, offset := pagination(c)
	adjustments, err := h.inventoryService.ListAdjustments(c.Request.Context(), productID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments, "count": len(adjustments)})
}
