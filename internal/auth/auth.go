package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles
const (
	RoleCustomer  = "customer"
	RoleVendor    = "vendor"
	RoleFranchise = "franchise"
	RoleAdmin     = "admin"
)

// Identity is the authenticated caller, derived from the bearer token
// and passed explicitly through the request context rather than read
// from framework globals.
type Identity struct {
	UserID      int64
	Role        string
	FranchiseID int64
}

// IsStaff reports whether the identity may perform vendor or admin
// operations.
func (id Identity) IsStaff() bool {
	return id.Role == RoleVendor || id.Role == RoleAdmin || id.Role == RoleFranchise
}

type claims struct {
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
	FranchiseID int64  `json:"franchise_id,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates signed bearer tokens
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier with the shared HMAC secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a bearer token, returning the caller's
// identity.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if c.UserID == 0 {
		return nil, errors.New("token missing user id")
	}

	role := c.Role
	if role == "" {
		role = RoleCustomer
	}

	return &Identity{UserID: c.UserID, Role: role, FranchiseID: c.FranchiseID}, nil
}

// Sign issues a token for an identity. Used by tests and tooling; the
// production issuer lives in the account service.
func (v *Verifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:      id.UserID,
		Role:        id.Role,
		FranchiseID: id.FranchiseID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}
