package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"martxmart/internal/util"

	"go.uber.org/zap"
)

// TokenCache stores short-lived gateway bearer tokens. Backed by Redis
// in production so all instances share one login session.
type TokenCache interface {
	GetGatewayToken(ctx context.Context, gateway string) (string, error)
	SetGatewayToken(ctx context.Context, gateway, token string, ttl time.Duration) error
}

// ShiprocketClient wraps the shipping gateway: login with email and
// password yields a bearer token valid for roughly ten days, which is
// cached and transparently refreshed on expiry.
type ShiprocketClient struct {
	httpClient *http.Client
	baseURL    string
	email      string
	password   string
	tokenTTL   time.Duration
	tokens     TokenCache
	logger     *zap.Logger
}

const shiprocketCacheKey = "shiprocket"

// NewShiprocketClient creates a new shipping gateway client
func NewShiprocketClient(baseURL, email, password string, tokenTTL time.Duration, tokens TokenCache) *ShiprocketClient {
	return &ShiprocketClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		email:      email,
		password:   password,
		tokenTTL:   tokenTTL,
		tokens:     tokens,
		logger:     util.GetLogger(),
	}
}

// ShipmentRequest describes a shipment to create at the gateway
type ShipmentRequest struct {
	OrderID       int64  `json:"order_id"`
	PickupPin     string `json:"pickup_postcode"`
	DeliveryPin   string `json:"delivery_postcode"`
	WeightGrams   int    `json:"weight"`
	CashOnDeliver bool   `json:"cod"`
}

// Shipment is the gateway's shipment record
type Shipment struct {
	ShipmentID int64  `json:"shipment_id"`
	AWB        string `json:"awb_code"`
	Courier    string `json:"courier_name"`
	Status     string `json:"status"`
}

// TrackingStatus is a single tracking scan
type TrackingStatus struct {
	AWB      string `json:"awb_code"`
	Status   string `json:"current_status"`
	Location string `json:"location"`
	Date     string `json:"date"`
}

// Serviceability is the result of a pincode serviceability check
type Serviceability struct {
	Serviceable   bool   `json:"serviceable"`
	Courier       string `json:"courier_name"`
	EstimatedDays int    `json:"estimated_delivery_days"`
	Rate          int64  `json:"rate"`
}

func (sc *ShiprocketClient) token(ctx context.Context) (string, error) {
	token, err := sc.tokens.GetGatewayToken(ctx, shiprocketCacheKey)
	if err != nil {
		sc.logger.Warn("Token cache read failed, re-authenticating", zap.Error(err))
	}
	if token != "" {
		return token, nil
	}
	return sc.authenticate(ctx)
}

// authenticate logs in and caches the returned bearer token
func (sc *ShiprocketClient) authenticate(ctx context.Context) (string, error) {
	start := time.Now()
	defer func() {
		util.GatewayRequestDuration.WithLabelValues("shiprocket", "auth").Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(map[string]string{
		"email":    sc.email,
		"password": sc.password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("shipping auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shipping auth returned status %d", resp.StatusCode)
	}

	var authResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}

	if err := sc.tokens.SetGatewayToken(ctx, shiprocketCacheKey, authResp.Token, sc.tokenTTL); err != nil {
		sc.logger.Warn("Failed to cache gateway token", zap.Error(err))
	}

	return authResp.Token, nil
}

// doAuthed performs an authenticated request, retrying once with a
// fresh token when the cached one has been revoked.
func (sc *ShiprocketClient) doAuthed(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	token, err := sc.token(ctx)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < 2; attempt++ {
		var bodyReader *bytes.Reader
		if payload != nil {
			body, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("failed to marshal request: %w", err)
			}
			bodyReader = bytes.NewReader(body)
		} else {
			bodyReader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, sc.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := sc.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("shipping request failed: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			token, err = sc.authenticate(ctx)
			if err != nil {
				return err
			}
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("shipping gateway returned status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}

	return fmt.Errorf("shipping request failed after token refresh")
}

// CreateShipment creates a shipment order at the gateway
func (sc *ShiprocketClient) CreateShipment(ctx context.Context, shipReq *ShipmentRequest) (*Shipment, error) {
	start := time.Now()
	defer func() {
		util.GatewayRequestDuration.WithLabelValues("shiprocket", "create_shipment").Observe(time.Since(start).Seconds())
	}()

	var shipment Shipment
	if err := sc.doAuthed(ctx, http.MethodPost, "/orders/create/adhoc", shipReq, &shipment); err != nil {
		return nil, err
	}

	sc.logger.Info("Shipment created",
		zap.Int64("order_id", shipReq.OrderID),
		zap.Int64("shipment_id", shipment.ShipmentID))

	return &shipment, nil
}

// Track retrieves tracking scans for an AWB
func (sc *ShiprocketClient) Track(ctx context.Context, awb string) ([]TrackingStatus, error) {
	start := time.Now()
	defer func() {
		util.GatewayRequestDuration.WithLabelValues("shiprocket", "track").Observe(time.Since(start).Seconds())
	}()

	var result struct {
		TrackingData []TrackingStatus `json:"tracking_data"`
	}
	if err := sc.doAuthed(ctx, http.MethodGet, "/courier/track/awb/"+awb, nil, &result); err != nil {
		return nil, err
	}
	return result.TrackingData, nil
}

// CheckServiceability checks whether a route can be serviced
func (sc *ShiprocketClient) CheckServiceability(ctx context.Context, pickupPin, deliveryPin string, weightGrams int, cod bool) (*Serviceability, error) {
	start := time.Now()
	defer func() {
		util.GatewayRequestDuration.WithLabelValues("shiprocket", "serviceability").Observe(time.Since(start).Seconds())
	}()

	codFlag := 0
	if cod {
		codFlag = 1
	}
	path := fmt.Sprintf("/courier/serviceability/?pickup_postcode=%s&delivery_postcode=%s&weight=%d&cod=%d",
		pickupPin, deliveryPin, weightGrams, codFlag)

	var result Serviceability
	if err := sc.doAuthed(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
