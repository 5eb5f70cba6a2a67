package tokenstore_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemshop/internal/shop/adapters/tokenstore"
	"gemshop/internal/shop/config"
	"gemshop/internal/shop/domain/entities"
	"gemshop/internal/shop/ports/tokens"
)

func newRedisStore(t *testing.T, namespace string) (tokens.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	store, err := tokenstore.NewRedisStore(context.Background(), &config.RedisConfig{
		Host: mr.Host(),
		Port: port,
	}, namespace)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisStorePairRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, "storefront")
	ctx := context.Background()

	pair, err := store.Pair(ctx)
	require.NoError(t, err)
	assert.True(t, pair.Empty())

	saved := entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}
	require.NoError(t, store.SavePair(ctx, saved))

	pair, err = store.Pair(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, pair)
}

func TestRedisStoreSessionIsSingleKey(t *testing.T) {
	store, mr := newRedisStore(t, "storefront")
	ctx := context.Background()

	require.NoError(t, store.SavePair(ctx, entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}))
	require.NoError(t, store.SaveProfile(ctx, &entities.UserProfile{ID: "user-1"}))

	// Вся сессия namespace живет в одном hash.
	assert.ElementsMatch(t, []string{"storefront:session"}, mr.Keys())
}

func TestRedisStoreClearRemovesEverything(t *testing.T) {
	store, mr := newRedisStore(t, "storefront")
	ctx := context.Background()

	require.NoError(t, store.SavePair(ctx, entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}))
	require.NoError(t, store.SaveProfile(ctx, &entities.UserProfile{ID: "user-1", Email: "jane@example.com"}))

	require.NoError(t, store.Clear(ctx))

	pair, err := store.Pair(ctx)
	require.NoError(t, err)
	assert.True(t, pair.Empty())

	profile, err := store.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	assert.Empty(t, mr.Keys())
}

func TestRedisStoreProfileRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, "storefront")
	ctx := context.Background()

	profile, err := store.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	saved := &entities.UserProfile{ID: "user-1", Email: "jane@example.com", Role: entities.RoleCustomer}
	require.NoError(t, store.SaveProfile(ctx, saved))

	profile, err = store.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, saved.Email, profile.Email)
	assert.Equal(t, saved.Role, profile.Role)
}

func TestRedisStoreNamespacesAreDisjoint(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := &config.RedisConfig{Host: mr.Host(), Port: port}
	ctx := context.Background()

	storefront, err := tokenstore.NewRedisStore(ctx, cfg, "storefront")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storefront.Close() })

	admin, err := tokenstore.NewRedisStore(ctx, cfg, "admin")
	require.NoError(t, err)
	t.Cleanup(func() { _ = admin.Close() })

	require.NoError(t, storefront.SavePair(ctx, entities.TokenPair{AccessToken: "customer-access", RefreshToken: "customer-refresh"}))
	require.NoError(t, admin.SavePair(ctx, entities.TokenPair{AccessToken: "admin-access", RefreshToken: "admin-refresh"}))

	require.NoError(t, storefront.Clear(ctx))

	pair, err := admin.Pair(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin-refresh", pair.RefreshToken)
}

func TestRedisStoreUnavailableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()

	_, err = tokenstore.NewRedisStore(context.Background(), &config.RedisConfig{
		Host: "localhost",
		Port: port,
	}, "storefront")
	assert.Error(t, err)
}
