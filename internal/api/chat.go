package api

import (
	"fmt"
	"net/http"

	"martxmart/internal/util"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// supportChat answers a support question via the assistant backend.
// Each user is rate limited independently.
func (h *Handler) supportChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerKey := fmt.Sprintf("chat:user:%d", identityFrom(c).UserID)
	allowed, err := h.chatLimiter.Allow(c.Request.Context(), callerKey)
	if err != nil {
		util.ChatRequestsTotal.WithLabelValues("error").Inc()
		respondError(c, err)
		return
	}
	if !allowed {
		util.ChatRequestsTotal.WithLabelValues("rate_limited").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
		return
	}

	reply, err := h.chatClient.Complete(c.Request.Context(), req.Message)
	if err != nil {
		util.ChatRequestsTotal.WithLabelValues("error").Inc()
		respondError(c, err)
		return
	}

	util.ChatRequestsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
