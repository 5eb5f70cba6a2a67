package stubapi_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemshop/internal/shop/adapters/rest"
	"gemshop/internal/shop/adapters/session"
	"gemshop/internal/shop/adapters/tokenstore"
	"gemshop/internal/shop/app/dto"
	shopservices "gemshop/internal/shop/app/services"
	"gemshop/internal/shop/domain/entities"
	svcPorts "gemshop/internal/shop/ports/services"
	tokensPorts "gemshop/internal/shop/ports/tokens"
	"gemshop/internal/stubapi"
	"gemshop/internal/stubapi/config"
)

const (
	adminEmail       = "admin@gemshop.test"
	adminPassword    = "admin-secret"
	customerEmail    = "customer@gemshop.test"
	customerPassword = "customer-secret"
)

// startStub поднимает заглушку на свободном порту и возвращает ее адрес.
func startStub(t *testing.T) string {
	t.Helper()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:          "integration-secret",
			AccessTTLMin:    15,
			RefreshTTLHours: 1,
		},
		Seed: config.SeedConfig{
			AdminEmail:       adminEmail,
			AdminPassword:    adminPassword,
			CustomerEmail:    customerEmail,
			CustomerPassword: customerPassword,
		},
	}

	app, err := stubapi.NewApp(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

// clientStack собирает настоящий клиентский стек поверх заглушки.
type clientStack struct {
	store   tokensPorts.Store
	guard   *session.Guard
	auth    svcPorts.AuthService
	cart    svcPorts.CartService
	catalog svcPorts.CatalogService
}

func newClientStack(t *testing.T, baseURL, namespace string) *clientStack {
	t.Helper()

	store, err := tokenstore.NewFileStore(t.TempDir(), namespace)
	require.NoError(t, err)

	guard := session.New(store, session.Config{RefreshURL: baseURL + "/api/auth/refresh"})
	client := rest.NewClient(baseURL, guard)

	return &clientStack{
		store:   store,
		guard:   guard,
		auth:    shopservices.NewAuthService(rest.NewAuthClient(client), store),
		cart:    shopservices.NewCartService(rest.NewCartClient(client), store, nil),
		catalog: shopservices.NewCatalogService(rest.NewCatalogClient(client)),
	}
}

func login(t *testing.T, stack *clientStack, email, password string) {
	t.Helper()
	_, err := stack.auth.Login(context.Background(), &dto.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
}

func TestCustomerCartFlow(t *testing.T) {
	baseURL := startStub(t)
	stack := newClientStack(t, baseURL, "storefront")
	ctx := context.Background()

	login(t, stack, customerEmail, customerPassword)

	products, err := stack.catalog.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	ring := products[0]

	item, err := stack.cart.Add(ctx, &dto.AddCartItemRequest{
		ProductID: ring.ID,
		Quantity:  2,
		Metal:     "gold",
		RingSize:  "17",
	})
	require.NoError(t, err)

	// Серверная цена: base 125000 * x2.5 за золото * 2 штуки.
	require.NotNil(t, item.CalculatedPrice)
	assert.Equal(t, int64(625000), *item.CalculatedPrice)

	// Дубликат отклоняется до обращения к серверу.
	_, err = stack.cart.Add(ctx, &dto.AddCartItemRequest{ProductID: ring.ID, Quantity: 1})
	assert.ErrorIs(t, err, shopservices.ErrDuplicateProduct)

	// Изменение количества сверяется с сервером в фоне.
	require.NoError(t, stack.cart.SetQuantity(ctx, item.ID, 3))
	stack.cart.Wait()

	require.NoError(t, stack.cart.Fetch(ctx))
	items := stack.cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	require.NotNil(t, items[0].CalculatedPrice)
	assert.Equal(t, int64(937500), *items[0].CalculatedPrice)

	require.NoError(t, stack.cart.Remove(ctx, item.ID))
	stack.cart.Wait()

	require.NoError(t, stack.cart.Fetch(ctx))
	assert.Empty(t, stack.cart.Items())
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	baseURL := startStub(t)
	stack := newClientStack(t, baseURL, "storefront")
	ctx := context.Background()

	login(t, stack, customerEmail, customerPassword)

	before, err := stack.store.Pair(ctx)
	require.NoError(t, err)

	// Порченый access токен провоцирует 401 на первом же запросе.
	require.NoError(t, stack.store.SavePair(ctx, entities.TokenPair{
		AccessToken:  "garbage",
		RefreshToken: before.RefreshToken,
	}))

	require.NoError(t, stack.cart.Fetch(ctx))

	after, err := stack.store.Pair(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "garbage", after.AccessToken)
	// Заглушка ротирует refresh токены при каждом обновлении.
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)
}

func TestRevokedRefreshTokenEndsSession(t *testing.T) {
	baseURL := startStub(t)
	stack := newClientStack(t, baseURL, "storefront")
	ctx := context.Background()

	login(t, stack, customerEmail, customerPassword)

	// И access, и refresh токены недействительны: цикл обновления
	// завершается отказом и сессия закрывается целиком.
	require.NoError(t, stack.store.SavePair(ctx, entities.TokenPair{
		AccessToken:  "garbage",
		RefreshToken: "unknown-refresh",
	}))

	err := stack.cart.Fetch(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrSessionEnded)

	pair, err := stack.store.Pair(ctx)
	require.NoError(t, err)
	assert.True(t, pair.Empty())
	assert.False(t, stack.auth.HasSession(ctx))
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	baseURL := startStub(t)
	stack := newClientStack(t, baseURL, "storefront")
	ctx := context.Background()

	login(t, stack, customerEmail, customerPassword)

	pair, err := stack.store.Pair(ctx)
	require.NoError(t, err)
	revoked := pair.RefreshToken

	require.NoError(t, stack.auth.Logout(ctx))
	assert.False(t, stack.auth.HasSession(ctx))

	// Отозванный refresh токен больше не обменивается.
	require.NoError(t, stack.store.SavePair(ctx, entities.TokenPair{
		AccessToken:  "garbage",
		RefreshToken: revoked,
	}))
	err = stack.cart.Fetch(ctx)
	assert.ErrorIs(t, err, session.ErrSessionEnded)
}

func TestAdminCatalogManagement(t *testing.T) {
	baseURL := startStub(t)
	admin := newClientStack(t, baseURL, "admin")
	customer := newClientStack(t, baseURL, "storefront")
	ctx := context.Background()

	login(t, admin, adminEmail, adminPassword)
	login(t, customer, customerEmail, customerPassword)

	created, err := admin.catalog.Create(ctx, &dto.ProductRequest{
		SKU:       "BR-TENNIS-04",
		Title:     "Tennis Bracelet",
		BasePrice: 240000,
		Metals: []entities.MetalOption{
			{Name: "silver", MultiplierBP: 10000},
			{Name: "gold", MultiplierBP: 25000},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// Новое изделие видно покупателю.
	products, err := customer.catalog.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, p := range products {
		if p.ID == created.ID {
			found = true
		}
	}
	assert.True(t, found)

	// Покупателю записи каталога запрещены.
	_, err = customer.catalog.Create(ctx, &dto.ProductRequest{SKU: "X", Title: "X", BasePrice: 1})
	assert.ErrorIs(t, err, rest.ErrUnauthorized)

	// Обновление и удаление администратором.
	created.Title = "Tennis Bracelet Deluxe"
	updated, err := admin.catalog.Update(ctx, created.ID, &dto.ProductRequest{
		SKU:       created.SKU,
		Title:     created.Title,
		BasePrice: created.BasePrice,
		Metals:    created.Metals,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tennis Bracelet Deluxe", updated.Title)

	require.NoError(t, admin.catalog.Delete(ctx, created.ID))

	_, err = admin.catalog.Get(ctx, created.ID)
	assert.ErrorIs(t, err, rest.ErrNotFound)
}

func TestDuplicateSKURejected(t *testing.T) {
	baseURL := startStub(t)
	admin := newClientStack(t, baseURL, "admin")
	ctx := context.Background()

	login(t, admin, adminEmail, adminPassword)

	req := &dto.ProductRequest{SKU: "PEND-05", Title: "Pendant", BasePrice: 99000}
	_, err := admin.catalog.Create(ctx, req)
	require.NoError(t, err)

	_, err = admin.catalog.Create(ctx, req)
	assert.ErrorIs(t, err, rest.ErrDuplicateItem)
}
