package api

import (
	"net/http"

	"martxmart/internal/service"

	"github.com/gin-gonic/gin"
)

// paymentCallback handles the signed gateway callback. Signature
// verification replaces bearer auth on this route.
func (h *Handler) paymentCallback(c *gin.Context) {
	var req service.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.paymentService.HandleCallback(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_id": payment.ID, "status": payment.Status})
}

// paymentStatus returns the payment for an order, polling the gateway
// when the local record is still pending.
func (h *Handler) paymentStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, _, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	identity := identityFrom(c)
	if order.UserID != identity.UserID && !identity.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your order"})
		return
	}

	payment, err := h.paymentService.PollStatus(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
