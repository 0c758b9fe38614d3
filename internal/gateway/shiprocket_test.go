package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTokenCache is a test stand-in for the Redis-backed cache.
type memTokenCache struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemTokenCache() *memTokenCache {
	return &memTokenCache{tokens: make(map[string]string)}
}

func (m *memTokenCache) GetGatewayToken(_ context.Context, gateway string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[gateway], nil
}

func (m *memTokenCache) SetGatewayToken(_ context.Context, gateway, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[gateway] = token
	return nil
}

func TestCreateShipmentAuthenticatesOnce(t *testing.T) {
	var logins int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			logins++
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "ship@example.com", creds["email"])
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
		case "/orders/create/adhoc":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(Shipment{ShipmentID: 555, AWB: "AWB123", Courier: "Delhivery", Status: "NEW"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewShiprocketClient(srv.URL, "ship@example.com", "pw", time.Hour, newMemTokenCache())
	ctx := context.Background()

	shipment, err := client.CreateShipment(ctx, &ShipmentRequest{OrderID: 1, PickupPin: "110001", DeliveryPin: "560001", WeightGrams: 500})
	require.NoError(t, err)
	assert.Equal(t, "AWB123", shipment.AWB)

	// Second call reuses the cached token.
	_, err = client.CreateShipment(ctx, &ShipmentRequest{OrderID: 2, PickupPin: "110001", DeliveryPin: "560001", WeightGrams: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, logins)
}

func TestCreateShipmentRefreshesRevokedToken(t *testing.T) {
	var logins int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			logins++
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-fresh"})
		case "/orders/create/adhoc":
			if r.Header.Get("Authorization") != "Bearer tok-fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(Shipment{ShipmentID: 556, AWB: "AWB456"})
		}
	}))
	defer srv.Close()

	cache := newMemTokenCache()
	cache.SetGatewayToken(context.Background(), "shiprocket", "tok-stale", time.Hour)

	client := NewShiprocketClient(srv.URL, "ship@example.com", "pw", time.Hour, cache)

	shipment, err := client.CreateShipment(context.Background(), &ShipmentRequest{OrderID: 3, PickupPin: "110001", DeliveryPin: "560001", WeightGrams: 500})
	require.NoError(t, err)
	assert.Equal(t, "AWB456", shipment.AWB)
	assert.Equal(t, 1, logins)
}

func TestCheckServiceability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
		case "/courier/serviceability/":
			assert.Equal(t, "110001", r.URL.Query().Get("pickup_postcode"))
			assert.Equal(t, "1", r.URL.Query().Get("cod"))
			json.NewEncoder(w).Encode(Serviceability{Serviceable: true, Courier: "Bluedart", EstimatedDays: 3, Rate: 8500})
		}
	}))
	defer srv.Close()

	client := NewShiprocketClient(srv.URL, "ship@example.com", "pw", time.Hour, newMemTokenCache())

	result, err := client.CheckServiceability(context.Background(), "110001", "560001", 500, true)
	require.NoError(t, err)
	assert.True(t, result.Serviceable)
	assert.Equal(t, 3, result.EstimatedDays)
}
