package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, at time.Time) *TokenIssuer {
	t.Helper()
	i, err := NewTokenIssuer("test-secret", 30*time.Minute)
	require.NoError(t, err)
	i.now = func() time.Time { return at }
	return i
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Minute)
	assert.Error(t, err)
	_, err = NewTokenIssuer("s", 0)
	assert.Error(t, err)
}

func TestGenerateAndValidate(t *testing.T) {
	now := time.Now()
	i := newIssuer(t, now)

	token, expiresAt, err := i.GenerateToken("admin")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(30*time.Minute), expiresAt, time.Second)

	id, err := i.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", id.Username)
}

func TestValidateDistinguishesExpiry(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	token, _, err := newIssuer(t, issuedAt).GenerateToken("admin")
	require.NoError(t, err)

	_, err = newIssuer(t, time.Now()).ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.False(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateRejectsBadTokens(t *testing.T) {
	i := newIssuer(t, time.Now())

	other, err := NewTokenIssuer("other-secret", time.Minute)
	require.NoError(t, err)
	foreign, _, err := other.GenerateToken("admin")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{User: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"alg none":     unsigned,
		"truncated":    foreign[:len(foreign)-4],
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := i.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = i.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
