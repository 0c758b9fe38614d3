package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(Identity{UserID: 42, Role: RoleFranchise, FranchiseID: 7}, time.Hour)
	require.NoError(t, err)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, RoleFranchise, identity.Role)
	assert.Equal(t, int64(7), identity.FranchiseID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a").Sign(Identity{UserID: 1}, time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(Identity{UserID: 1}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewVerifier("test-secret").Verify("not-a-token")
	assert.Error(t, err)
}

func TestVerifyDefaultsRole(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(Identity{UserID: 9}, time.Hour)
	require.NoError(t, err)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, identity.Role)
	assert.False(t, identity.IsStaff())
}

func TestIsStaff(t *testing.T) {
	assert.True(t, Identity{Role: RoleAdmin}.IsStaff())
	assert.True(t, Identity{Role: RoleVendor}.IsStaff())
	assert.True(t, Identity{Role: RoleFranchise}.IsStaff())
	assert.False(t, Identity{Role: RoleCustomer}.IsStaff())
}
