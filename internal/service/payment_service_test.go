package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"martxmart/internal/models"

	"github.com/stretchr/testify/assert"
)

func signPayload(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test-webhook-secret"
	sig := signPayload("order_Abc123", "pay_Xyz789", secret)

	assert.True(t, VerifySignature("order_Abc123", "pay_Xyz789", secret, sig))
}

func TestVerifySignatureRejectsMutation(t *testing.T) {
	secret := "test-webhook-secret"
	sig := signPayload("order_Abc123", "pay_Xyz789", secret)

	// Flipping any single character must invalidate the signature.
	for i := 0; i < len(sig); i++ {
		mutated := []byte(sig)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		assert.False(t, VerifySignature("order_Abc123", "pay_Xyz789", secret, string(mutated)),
			"mutated signature at index %d should not verify", i)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	sig := signPayload("order_Abc123", "pay_Xyz789", "secret-a")

	assert.False(t, VerifySignature("order_Abc123", "pay_Xyz789", "secret-b", sig))
}

func TestVerifySignatureRejectsSwappedIDs(t *testing.T) {
	secret := "test-webhook-secret"
	sig := signPayload("order_Abc123", "pay_Xyz789", secret)

	assert.False(t, VerifySignature("pay_Xyz789", "order_Abc123", secret, sig))
}

func TestVerifySignatureEmpty(t *testing.T) {
	assert.False(t, VerifySignature("order_Abc123", "pay_Xyz789", "secret", ""))
}

func TestNextPaymentStatus(t *testing.T) {
	tests := []struct {
		name    string
		current string
		gateway string
		want    string
		applied bool
	}{
		{"pending captured", models.PaymentStatusPending, "captured", models.PaymentStatusSuccess, true},
		{"pending authorized", models.PaymentStatusPending, "authorized", models.PaymentStatusSuccess, true},
		{"pending no status", models.PaymentStatusPending, "", models.PaymentStatusSuccess, true},
		{"pending failed", models.PaymentStatusPending, "failed", models.PaymentStatusFailed, true},
		{"pending refunded", models.PaymentStatusPending, "refunded", models.PaymentStatusRefunded, true},
		{"success refunded", models.PaymentStatusSuccess, "refunded", models.PaymentStatusRefunded, true},
		{"success replayed capture", models.PaymentStatusSuccess, "captured", models.PaymentStatusSuccess, false},
		{"failed stays failed", models.PaymentStatusFailed, "captured", models.PaymentStatusFailed, false},
		{"failed ignores refund", models.PaymentStatusFailed, "refunded", models.PaymentStatusFailed, false},
		{"refunded replayed", models.PaymentStatusRefunded, "refunded", models.PaymentStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := nextPaymentStatus(tt.current, tt.gateway)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.applied, applied)
		})
	}
}
