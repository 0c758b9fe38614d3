package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key-id", user)
		assert.Equal(t, "key-secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(49900), body["amount"])
		assert.Equal(t, "INR", body["currency"])

		json.NewEncoder(w).Encode(GatewayOrder{
			ID:       "order_test123",
			Amount:   49900,
			Currency: "INR",
			Receipt:  "rcpt-1",
			Status:   "created",
		})
	}))
	defer srv.Close()

	client := NewRazorpayClient(srv.URL, "key-id", "key-secret")

	order, err := client.CreateOrder(context.Background(), 49900, "INR", "rcpt-1")
	require.NoError(t, err)
	assert.Equal(t, "order_test123", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"amount too small"}}`))
	}))
	defer srv.Close()

	client := NewRazorpayClient(srv.URL, "key-id", "key-secret")

	_, err := client.CreateOrder(context.Background(), 1, "INR", "rcpt-1")
	assert.Error(t, err)
}

func TestFetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_abc", r.URL.Path)

		json.NewEncoder(w).Encode(GatewayPayment{
			ID:      "pay_abc",
			OrderID: "order_test123",
			Amount:  49900,
			Status:  "captured",
			Method:  "upi",
		})
	}))
	defer srv.Close()

	client := NewRazorpayClient(srv.URL, "key-id", "key-secret")

	payment, err := client.FetchPayment(context.Background(), "pay_abc")
	require.NoError(t, err)
	assert.Equal(t, "captured", payment.Status)
	assert.Equal(t, "order_test123", payment.OrderID)
}
