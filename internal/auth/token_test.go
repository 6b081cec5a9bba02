package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestTokenRoundtrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	token, expiresAt, err := tm.GenerateToken("u1", domain.RoleTeamLead)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleTeamLead, claims.Role)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	tm.ttl = -time.Minute

	token, _, err := tm.GenerateToken("u1", domain.RoleEndUser)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenInvalid(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	_, err := tm.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	other := NewTokenManager("different-secret", 60)
	token, _, err := other.GenerateToken("u1", domain.RoleEndUser)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
