package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewKeysFromPair(privateKey)
}

func TestTokenRoundTrip(t *testing.T) {
	k := testKeys(t)

	token, err := k.GenerateToken("user-123", []string{RoleUser}, time.Hour)
	require.NoError(t, err)

	claims, err := k.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestExpiredTokenRejected(t *testing.T) {
	k := testKeys(t)

	token, err := k.GenerateToken("user-123", []string{RoleUser}, -time.Minute)
	require.NoError(t, err)

	_, err = k.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenFromDifferentKeyRejected(t *testing.T) {
	k := testKeys(t)
	other := testKeys(t)

	token, err := other.GenerateToken("user-123", []string{RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = k.ValidateToken(token)
	assert.Error(t, err)
}
