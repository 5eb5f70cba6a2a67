package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemshop/internal/shop/adapters/session"
	"gemshop/internal/shop/domain/entities"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestExpiry(t *testing.T) {
	expiresAt := time.Now().Add(15 * time.Minute).Truncate(time.Second)

	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	got, err := session.Expiry(token)
	require.NoError(t, err)
	assert.True(t, got.Equal(expiresAt))
}

func TestExpiryWithoutExpClaim(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{Subject: "user-1"})

	_, err := session.Expiry(token)
	assert.ErrorIs(t, err, session.ErrNoExpiryClaim)
}

func TestExpiryOpaqueToken(t *testing.T) {
	_, err := session.Expiry("not-a-jwt")
	assert.Error(t, err)
}

func TestCheckStartupExpiryRefreshesStaleToken(t *testing.T) {
	var refreshCalls atomic.Int64
	refresh := newRefreshServer(t, &refreshCalls, 0)
	defer refresh.Close()

	stale := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	store := &memStore{pair: entities.TokenPair{AccessToken: stale, RefreshToken: "refresh-old"}}
	guard := session.New(store, session.Config{RefreshURL: refresh.URL})

	require.NoError(t, guard.CheckStartupExpiry(context.Background()))

	assert.Equal(t, int64(1), refreshCalls.Load())
	pair, err := store.Pair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-new", pair.AccessToken)
	assert.Equal(t, "refresh-new", pair.RefreshToken)
}

func TestCheckStartupExpiryFreshTokenSkipsRefresh(t *testing.T) {
	var refreshCalls atomic.Int64
	refresh := newRefreshServer(t, &refreshCalls, 0)
	defer refresh.Close()

	fresh := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	store := &memStore{pair: entities.TokenPair{AccessToken: fresh, RefreshToken: "refresh-old"}}
	guard := session.New(store, session.Config{RefreshURL: refresh.URL})

	require.NoError(t, guard.CheckStartupExpiry(context.Background()))
	assert.Equal(t, int64(0), refreshCalls.Load())
}

func TestCheckStartupExpiryOpaqueTokenIsAdvisory(t *testing.T) {
	var refreshCalls atomic.Int64
	refresh := newRefreshServer(t, &refreshCalls, 0)
	defer refresh.Close()

	store := &memStore{pair: entities.TokenPair{AccessToken: "opaque-token", RefreshToken: "refresh-old"}}
	guard := session.New(store, session.Config{RefreshURL: refresh.URL})

	// Нечитаемый токен не ошибка: решение об истечении остается серверу.
	require.NoError(t, guard.CheckStartupExpiry(context.Background()))
	assert.Equal(t, int64(0), refreshCalls.Load())
}

func TestCheckStartupExpiryWithoutSession(t *testing.T) {
	guard := session.New(&memStore{}, session.Config{RefreshURL: "http://unused.invalid"})
	require.NoError(t, guard.CheckStartupExpiry(context.Background()))
}
