package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"martxmart/internal/auth"
	"martxmart/internal/service"
	"martxmart/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(h *Handler, register func(*gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)
	return router
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	h := &Handler{verifier: auth.NewVerifier("test-secret")}
	router := testRouter(h, func(r *gin.Engine) {
		r.GET("/protected", h.authMiddleware(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	h := &Handler{verifier: auth.NewVerifier("test-secret")}
	router := testRouter(h, func(r *gin.Engine) {
		r.GET("/protected", h.authMiddleware(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewarePassesIdentity(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	h := &Handler{verifier: verifier}

	token, err := verifier.Sign(auth.Identity{UserID: 42, Role: auth.RoleCustomer}, time.Hour)
	require.NoError(t, err)

	router := testRouter(h, func(r *gin.Engine) {
		r.GET("/protected", h.authMiddleware(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user_id": identityFrom(c).UserID})
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42}`, w.Body.String())
}

func TestStaffOnlyRejectsCustomer(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	h := &Handler{verifier: verifier}

	token, err := verifier.Sign(auth.Identity{UserID: 42, Role: auth.RoleCustomer}, time.Hour)
	require.NoError(t, err)

	router := testRouter(h, func(r *gin.Engine) {
		r.GET("/staff", h.authMiddleware(), h.staffOnly(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStaffOnlyAllowsFranchise(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	h := &Handler{verifier: verifier}

	token, err := verifier.Sign(auth.Identity{UserID: 7, Role: auth.RoleFranchise, FranchiseID: 3}, time.Hour)
	require.NoError(t, err)

	router := testRouter(h, func(r *gin.Engine) {
		r.GET("/staff", h.authMiddleware(), h.staffOnly(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{store.ErrProductNotFound, http.StatusNotFound},
		{store.ErrOrderNotFound, http.StatusNotFound},
		{store.ErrInsufficientStock, http.StatusConflict},
		{store.ErrDuplicateReview, http.StatusConflict},
		{service.ErrInvalidTransition, http.StatusConflict},
		{service.ErrInvalidSignature, http.StatusUnauthorized},
		{service.ErrEmptyCart, http.StatusBadRequest},
		{service.ErrInvalidRating, http.StatusBadRequest},
		{service.ErrCouponExpired, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	gin.SetMode(gin.TestMode)
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %q", tc.err)
	}
}
