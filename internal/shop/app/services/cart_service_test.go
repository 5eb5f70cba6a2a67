package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/app/services"
	"gemshop/internal/shop/domain/entities"
)

var errServerDown = errors.New("server unavailable")

// mockCartAPI - мок клиента серверной корзины.
type mockCartAPI struct {
	mock.Mock
}

func (m *mockCartAPI) Fetch(ctx context.Context) ([]entities.CartItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.CartItem), args.Error(1)
}

func (m *mockCartAPI) Add(ctx context.Context, req *dto.AddCartItemRequest) (*entities.CartItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CartItem), args.Error(1)
}

func (m *mockCartAPI) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	return m.Called(ctx, itemID, quantity).Error(0)
}

func (m *mockCartAPI) Remove(ctx context.Context, itemID string) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *mockCartAPI) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fakeStore - хранилище токенов с фиксированной парой.
type fakeStore struct {
	pair entities.TokenPair
}

func (s *fakeStore) Pair(_ context.Context) (entities.TokenPair, error) { return s.pair, nil }
func (s *fakeStore) SavePair(_ context.Context, pair entities.TokenPair) error {
	s.pair = pair
	return nil
}
func (s *fakeStore) Profile(_ context.Context) (*entities.UserProfile, error) { return nil, nil }
func (s *fakeStore) SaveProfile(_ context.Context, _ *entities.UserProfile) error {
	return nil
}
func (s *fakeStore) Clear(_ context.Context) error {
	s.pair = entities.TokenPair{}
	return nil
}
func (s *fakeStore) Close() error { return nil }

// recordingNotifier собирает пользовательские уведомления.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

func sessionStore() *fakeStore {
	return &fakeStore{pair: entities.TokenPair{AccessToken: "access", RefreshToken: "refresh"}}
}

func serverItem(id, productID string, quantity int, calculated int64) entities.CartItem {
	return entities.CartItem{
		ID:              id,
		ProductID:       productID,
		Title:           "Solitaire Ring",
		BasePrice:       50,
		Quantity:        quantity,
		CalculatedPrice: &calculated,
	}
}

func TestFetchWithoutSessionShortCircuits(t *testing.T) {
	api := &mockCartAPI{}
	svc := services.NewCartService(api, &fakeStore{}, nil)

	require.NoError(t, svc.Fetch(context.Background()))

	assert.Empty(t, svc.Items())
	assert.Equal(t, entities.CartTotals{}, svc.Totals())
	api.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestFetchReplacesLocalState(t *testing.T) {
	api := &mockCartAPI{}
	items := []entities.CartItem{
		serverItem("item-1", "prod-1", 2, 100),
		serverItem("item-2", "prod-2", 1, 54000),
	}
	api.On("Fetch", mock.Anything).Return(items, nil).Once()

	svc := services.NewCartService(api, sessionStore(), nil)
	require.NoError(t, svc.Fetch(context.Background()))

	assert.Equal(t, items, svc.Items())
	assert.Equal(t, entities.CartTotals{Quantity: 3, Price: 54100}, svc.Totals())
	api.AssertExpectations(t)
}

func TestAddRejectsDuplicateProduct(t *testing.T) {
	api := &mockCartAPI{}
	api.On("Fetch", mock.Anything).Return([]entities.CartItem{
		serverItem("item-1", "prod-1", 1, 100),
	}, nil).Once()

	svc := services.NewCartService(api, sessionStore(), nil)
	require.NoError(t, svc.Fetch(context.Background()))

	_, err := svc.Add(context.Background(), &dto.AddCartItemRequest{ProductID: "prod-1", Quantity: 1})
	assert.ErrorIs(t, err, services.ErrDuplicateProduct)

	// Отклонение происходит до любых изменений состояния.
	assert.Len(t, svc.Items(), 1)
	api.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	api := &mockCartAPI{}
	svc := services.NewCartService(api, sessionStore(), nil)

	_, err := svc.Add(context.Background(), &dto.AddCartItemRequest{ProductID: "prod-1", Quantity: 0})
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)
	api.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestAddWithoutSessionStaysLocal(t *testing.T) {
	api := &mockCartAPI{}
	svc := services.NewCartService(api, &fakeStore{}, nil)

	item, err := svc.Add(context.Background(), &dto.AddCartItemRequest{ProductID: "prod-1", Quantity: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "prod-1", item.ProductID)
	assert.Len(t, svc.Items(), 1)
	api.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestSetQuantityRescalesServerPrice(t *testing.T) {
	api := &mockCartAPI{}
	api.On("Fetch", mock.Anything).Return([]entities.CartItem{
		serverItem("item-1", "prod-1", 2, 100),
	}, nil).Once()
	api.On("UpdateQuantity", mock.Anything, "item-1", 3).Return(nil).Once()

	svc := services.NewCartService(api, sessionStore(), nil)
	require.NoError(t, svc.Fetch(context.Background()))

	require.NoError(t, svc.SetQuantity(context.Background(), "item-1", 3))

	// Оптимистичное состояние видно сразу, до завершения сверки.
	items := svc.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	require.NotNil(t, items[0].CalculatedPrice)
	assert.Equal(t, int64(150), *items[0].CalculatedPrice)
	assert.Equal(t, entities.CartTotals{Quantity: 3, Price: 150}, svc.Totals())

	svc.Wait()
	api.AssertExpectations(t)
}

func TestSetQuantityRejectsInvalidValues(t *testing.T) {
	api := &mockCartAPI{}
	svc := services.NewCartService(api, sessionStore(), nil)

	assert.ErrorIs(t, svc.SetQuantity(context.Background(), "item-1", 0), services.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.SetQuantity(context.Background(), "item-1", -5), services.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.SetQuantity(context.Background(), "missing", 2), services.ErrItemNotFound)
}

func TestSetQuantityRollsBackOnReconciliationFailure(t *testing.T) {
	api := &mockCartAPI{}
	api.On("Fetch", mock.Anything).Return([]entities.CartItem{
		serverItem("item-1", "prod-1", 2, 100),
	}, nil).Once()
	api.On("UpdateQuantity", mock.Anything, "item-1", 3).Return(errServerDown).Once()

	notifier := &recordingNotifier{}
	svc := services.NewCartService(api, sessionStore(), notifier)
	require.NoError(t, svc.Fetch(context.Background()))

	require.NoError(t, svc.SetQuantity(context.Background(), "item-1", 3))
	svc.Wait()

	items := svc.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	require.NotNil(t, items[0].CalculatedPrice)
	assert.Equal(t, int64(100), *items[0].CalculatedPrice)
	assert.Equal(t, entities.CartTotals{Quantity: 2, Price: 100}, svc.Totals())

	assert.Equal(t, []string{services.MsgQuantityReverted}, notifier.Messages())
	api.AssertExpectations(t)
}

func TestStaleRollbackDoesNotClobberNewerMutation(t *testing.T) {
	release := make(chan struct{})

	api := &mockCartAPI{}
	api.On("Fetch", mock.Anything).Return([]entities.CartItem{
		serverItem("item-1", "prod-1", 2, 100),
	}, nil).Once()
	// Первая сверка зависает до release и завершается отказом уже после
	// того, как вторая мутация успела примениться.
	api.On("UpdateQuantity", mock.Anything, "item-1", 3).
		Run(func(mock.Arguments) { <-release }).
		Return(errServerDown).Once()
	api.On("UpdateQuantity", mock.Anything, "item-1", 4).Return(nil).Once()

	notifier := &recordingNotifier{}
	svc := services.NewCartService(api, sessionStore(), notifier)
	require.NoError(t, svc.Fetch(context.Background()))

	require.NoError(t, svc.SetQuantity(context.Background(), "item-1", 3))
	require.NoError(t, svc.SetQuantity(context.Background(), "item-1", 4))
	close(release)
	svc.Wait()

	// Отказ устаревшей сверки не откатывает более новое состояние.
	items := svc.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
	require.NotNil(t, items[0].CalculatedPrice)
	assert.Equal(t, int64(200), *items[0].CalculatedPrice)

	assert.Empty(t, notifier.Messages())
	api.AssertExpectations(t)
}

func TestRemoveIsBestEffort(t *testing.T) {
	api := &mockCartAPI{}
	api.On("Fetch", mock.Anything).Return([]entities.CartItem{
		serverItem("item-1", "prod-1", 2, 100),
	}, nil).Once()
	api.On("Remove", mock.Anything, "item-1").Return(errServerDown).Once()

	notifier := &recordingNotifier{}
	svc := services.NewCartService(api, sessionStore(), notifier)
	require.NoError(t, svc.Fetch(context.Background()))

	require.NoError(t, svc.Remove(context.Background(), "item-1"))
	svc.Wait()

	// Локальное удаление не откатывается даже при отказе сервера.
	assert.Empty(t, svc.Items())
	assert.Equal(t, entities.CartTotals{}, svc.Totals())
	assert.Equal(t, []string{services.MsgRemoveNotSynced}, notifier.Messages())
	api.AssertExpectations(t)
}

func TestRemoveUnknownItem(t *testing.T) {
	api := &mockCartAPI{}
	svc := services.NewCartService(api, sessionStore(), nil)

	assert.ErrorIs(t, svc.Remove(context.Background(), "missing"), services.ErrItemNotFound)
	api.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestClearInvalidatesPendingRollbacks(t *testing.T) {
	release := make(chan struct{})

	api := &mockCartAPI{}
	api.On("Fetch", mock.Anything).Return([]entities.CartItem{
		serverItem("item-1", "prod-1", 2, 100),
	}, nil).Once()
	api.On("UpdateQuantity", mock.Anything, "item-1", 3).
		Run(func(mock.Arguments) { <-release }).
		Return(errServerDown).Once()
	api.On("Clear", mock.Anything).Return(nil).Once()

	svc := services.NewCartService(api, sessionStore(), nil)
	require.NoError(t, svc.Fetch(context.Background()))

	require.NoError(t, svc.SetQuantity(context.Background(), "item-1", 3))
	require.NoError(t, svc.Clear(context.Background()))
	close(release)
	svc.Wait()

	// Очистка обесценивает снимок отката: позиция не воскресает.
	assert.Empty(t, svc.Items())
	api.AssertExpectations(t)
}

func TestTotalsAlwaysDerivedFromItems(t *testing.T) {
	api := &mockCartAPI{}
	api.On("Fetch", mock.Anything).Return([]entities.CartItem{
		serverItem("item-1", "prod-1", 2, 100),
		serverItem("item-2", "prod-2", 1, 54000),
	}, nil).Once()
	api.On("UpdateQuantity", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	api.On("Remove", mock.Anything, mock.Anything).Return(nil)

	svc := services.NewCartService(api, sessionStore(), nil)
	require.NoError(t, svc.Fetch(context.Background()))

	require.NoError(t, svc.SetQuantity(context.Background(), "item-1", 5))
	require.NoError(t, svc.SetQuantity(context.Background(), "item-2", 2))
	require.NoError(t, svc.Remove(context.Background(), "item-1"))
	svc.Wait()

	// Агрегаты всегда совпадают со свёрткой по текущим позициям.
	assert.Equal(t, entities.TotalsOf(svc.Items()), svc.Totals())
}
