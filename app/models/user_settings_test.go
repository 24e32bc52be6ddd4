package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSettingsIssueAPIKey(t *testing.T) {
	us := &UserSettings{UserID: 1}

	key, err := us.IssueAPIKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	assert.NotEmpty(t, us.APIKeyHash)
	assert.NotEmpty(t, us.APIKeyPrefix)
	assert.NotNil(t, us.APIKeyCreatedAt)
	assert.Nil(t, us.APIKeyLastUsedAt)
	assert.True(t, us.HasActiveAPIKey())
	assert.Equal(t, HashAPIKey(key), us.APIKeyHash)
}

func TestUserSettingsRevokeAPIKey(t *testing.T) {
	us := &UserSettings{UserID: 99}
	_, err := us.IssueAPIKey()
	require.NoError(t, err)

	us.RevokeAPIKey()

	assert.False(t, us.HasActiveAPIKey())
	assert.Equal(t, "", us.APIKeyHash)
	assert.Equal(t, "", us.APIKeyPrefix)
	assert.NotNil(t, us.APIKeyRevokedAt)
}

func TestNewTokenPurchaseDefaults(t *testing.T) {
	tp := NewTokenPurchase(7, 5, 1499, "pi_123")

	assert.Equal(t, 5, tp.TokensPurchased)
	assert.Equal(t, 5, tp.TokensRemaining)
	assert.Equal(t, int64(1499), tp.PurchaseAmountCents)
	assert.True(t, tp.IsActive)
	require.NotNil(t, tp.ExpiresAt)
	assert.Equal(t, tp.PurchasedAt.Add(TokenPurchaseTTL), *tp.ExpiresAt)
}

func TestCouplesInviteToken(t *testing.T) {
	a, err := NewCouplesInvite(1, "partner@example.com", "premium")
	require.NoError(t, err)
	b, err := NewCouplesInvite(1, "partner@example.com", "premium")
	require.NoError(t, err)

	assert.Len(t, a.Token, 40)
	assert.NotEqual(t, a.Token, b.Token)
	assert.Equal(t, CouplesInvitePending, a.Status)
}
