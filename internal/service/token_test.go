package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidtube/backend/internal/model"
)

func TestNewTokenIssuerValidation(t *testing.T) {
	_, err := NewTokenIssuer("", "b", time.Minute, time.Hour)
	assert.ErrorIs(t, err, ErrMisconfigured)
	_, err = NewTokenIssuer("a", "a", time.Minute, time.Hour)
	assert.ErrorIs(t, err, ErrMisconfigured)
	_, err = NewTokenIssuer("a", "b", time.Hour, time.Minute)
	assert.ErrorIs(t, err, ErrMisconfigured)
	_, err = NewTokenIssuer("a", "b", 0, time.Hour)
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestTokenIssuerPair(t *testing.T) {
	issuer, err := NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	require.NoError(t, err)
	user := &model.User{ID: uuid.NewString(), Username: "alice"}

	first, err := issuer.IssuePair(user)
	require.NoError(t, err)
	second, err := issuer.IssuePair(user)
	require.NoError(t, err)
	// same subject and second, still distinct tokens
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.True(t, first.AccessExpiresAt.Before(first.RefreshExpiresAt))

	claims, err := issuer.ParseAccess(first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, "alice", claims.Username)

	subject, err := issuer.ParseRefresh(first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	_, err = issuer.ParseAccess(first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = issuer.ParseRefresh(first.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenIssuerRejectsForeignTokens(t *testing.T) {
	issuer, err := NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	require.NoError(t, err)
	now := time.Now()

	claims := tokenClaims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-else"))
	require.NoError(t, err)
	_, err = issuer.ParseRefresh(otherKey)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ParseRefresh(unsigned)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	noExpiry := claims
	noExpiry.ExpiresAt = nil
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExpiry).SignedString([]byte("refresh"))
	require.NoError(t, err)
	_, err = issuer.ParseRefresh(signed)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestHashRefreshToken(t *testing.T) {
	assert.Equal(t, hashRefreshToken("abc"), hashRefreshToken("abc"))
	assert.NotEqual(t, hashRefreshToken("abc"), hashRefreshToken("abd"))
	assert.NotContains(t, hashRefreshToken("abc"), "abc")
}
