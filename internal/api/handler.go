package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"martxmart/internal/auth"
	"martxmart/internal/chat"
	"martxmart/internal/gateway"
	"martxmart/internal/ratelimit"
	"martxmart/internal/service"
	"martxmart/internal/store"
	"martxmart/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	store            *store.Store
	cartService      *service.CartService
	orderService     *service.OrderService
	paymentService   *service.PaymentService
	inventoryService *service.InventoryService
	reviewService    *service.ReviewService
	couponService    *service.CouponService
	chatClient       *chat.Client
	chatLimiter      ratelimit.Limiter
	shipping         *gateway.ShiprocketClient
	verifier         *auth.Verifier
}

// NewHandler creates a new HTTP handler
func NewHandler(
	store *store.Store,
	cartService *service.CartService,
	orderService *service.OrderService,
	paymentService *service.PaymentService,
	inventoryService *service.InventoryService,
	reviewService *service.ReviewService,
	couponService *service.CouponService,
	chatClient *chat.Client,
	chatLimiter ratelimit.Limiter,
	shipping *gateway.ShiprocketClient,
	verifier *auth.Verifier,
) *Handler {
	return &Handler{
		store:            store,
		cartService:      cartService,
		orderService:     orderService,
		paymentService:   paymentService,
		inventoryService: inventoryService,
		reviewService:    reviewService,
		couponService:    couponService,
		chatClient:       chatClient,
		chatLimiter:      chatLimiter,
		shipping:         shipping,
		verifier:         verifier,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Gateway callbacks authenticate via signature, not bearer token.
	v1.POST("/payments/callback", h.paymentCallback)

	v1.GET("/products", h.listProducts)
	v1.GET("/products/:id", h.getProduct)
	v1.GET("/products/:id/reviews", h.listReviews)

	authed := v1.Group("")
	authed.Use(h.authMiddleware())
	{
		authed.GET("/cart", h.getCart)
		authed.POST("/cart", h.addCartItem)
		authed.DELETE("/cart", h.clearCart)
		authed.DELETE("/cart/:productId", h.removeCartItem)

		authed.POST("/orders", h.createOrder)
		authed.GET("/orders", h.listOrders)
		authed.GET("/orders/:id", h.getOrder)
		authed.GET("/orders/:id/payment", h.paymentStatus)

		authed.POST("/reviews", h.createReview)
		authed.GET("/coupons/:code/validate", h.validateCoupon)
		authed.POST("/support/chat", h.supportChat)

		authed.GET("/shipping/serviceability", h.checkServiceability)
		authed.GET("/shipping/track/:awb", h.trackShipment)
	}

	staff := v1.Group("")
	staff.Use(h.authMiddleware(), h.staffOnly())
	{
		staff.PATCH("/orders/:id/status", h.updateOrderStatus)
		staff.DELETE("/products/:id", h.deactivateProduct)
		staff.POST("/inventory/adjustments", h.adjustInventory)
		staff.GET("/inventory/adjustments", h.listAdjustments)
		staff.POST("/inventory/transfers", h.transferInventory)
		staff.GET("/inventory/transfers", h.listTransfers)
		staff.GET("/inventory/:productId", h.getInventory)
		staff.GET("/inventory/low-stock", h.lowStock)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

const identityKey = "identity"

// authMiddleware validates the bearer token and stores the caller's
// identity on the request context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		identity, err := h.verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// staffOnly rejects callers without a staff role
func (h *Handler) staffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) *auth.Identity {
	val, _ := c.Get(identityKey)
	identity, _ := val.(*auth.Identity)
	if identity == nil {
		return &auth.Identity{}
	}
	return identity
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrPaymentNotFound),
		errors.Is(err, store.ErrCartNotFound),
		errors.Is(err, store.ErrInventoryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrDuplicateReview),
		errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidSignature):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrReviewNotEligible),
		errors.Is(err, service.ErrAdjustmentQuantity),
		errors.Is(err, service.ErrSameFranchise),
		errors.Is(err, service.ErrCouponNotActive),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponMinOrder),
		errors.Is(err, service.ErrCouponExhausted):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
