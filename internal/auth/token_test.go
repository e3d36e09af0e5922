package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/entity"
)

func newTestTokens(secret, issuer string) *Tokens {
	return NewTokens(config.Config{Auth: config.Auth{JWTSecret: secret, Issuer: issuer, TokenTTL: time.Hour}})
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := newTestTokens("secret", "storefront")

	signed, expiresAt, err := tokens.Issue(&entity.User{ID: 42, Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, entity.RoleAdmin, claims.Role)
}

func TestTokensRejects(t *testing.T) {
	tokens := newTestTokens("secret", "storefront")
	user := &entity.User{ID: 1}

	t.Run("expired", func(t *testing.T) {
		past := newTestTokens("secret", "storefront")
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		signed, _, err := past.Issue(user)
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		signed, _, err := newTestTokens("other", "storefront").Issue(user)
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		signed, _, err := newTestTokens("secret", "elsewhere").Issue(user)
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "storefront",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaimsUserID(t *testing.T) {
	for _, sub := range []string{"", "abc", "0", "-3"} {
		c := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
		_, err := c.UserID()
		assert.ErrorIs(t, err, ErrInvalidToken, sub)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("sikret")
	require.NoError(t, err)
	assert.NotEqual(t, "sikret", hash)

	ok, err := VerifyPassword(hash, "sikret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
