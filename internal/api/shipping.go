package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// checkServiceability proxies a courier serviceability check for a
// pickup/delivery pincode pair.
func (h *Handler) checkServiceability(c *gin.Context) {
	pickup := c.Query("pickup_pin")
	delivery := c.Query("delivery_pin")
	if pickup == "" || delivery == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pickup_pin and delivery_pin are required"})
		return
	}

	weight, _ := strconv.Atoi(c.DefaultQuery("weight", "500"))
	cod := c.Query("cod") == "1"

	result, err := h.shipping.CheckServiceability(c.Request.Context(), pickup, delivery, weight, cod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// trackShipment returns tracking scans for an AWB
func (h *Handler) trackShipment(c *gin.Context) {
	awb := c.Param("awb")
	if awb == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid awb"})
		return
	}

	scans, err := h.shipping.Track(c.Request.Context(), awb)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"awb": awb, "scans": scans})
}
