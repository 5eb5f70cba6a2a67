// Package services содержит реализации прикладных сервисов клиента.
// Включает сервисы сессии, корзины и каталога.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
	restPorts "gemshop/internal/shop/ports/rest"
	svcPorts "gemshop/internal/shop/ports/services"
	tokensPorts "gemshop/internal/shop/ports/tokens"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogCartFetch       = "cart service: authoritative fetch"
	LogCartAdd         = "cart service: add item"
	LogCartSetQuantity = "cart service: set quantity"
	LogCartRemove      = "cart service: remove item"
	LogCartClear       = "cart service: clear"

	LogReconcileFailed     = "cart reconciliation failed, rolling back"
	LogReconcileSuperseded = "cart reconciliation failed, rollback superseded"
	LogBestEffortFailed    = "best-effort cart call failed"

	MsgQuantityReverted = "could not update quantity, change reverted"
	MsgRemoveNotSynced  = "item removed locally, server sync failed"
	MsgClearNotSynced   = "cart cleared locally, server sync failed"
)

// Ошибки корзины.
var (
	// ErrInvalidQuantity возвращается для количества меньше единицы.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrItemNotFound возвращается для отсутствующей позиции корзины.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrDuplicateProduct возвращается при повторном добавлении изделия.
	ErrDuplicateProduct = errors.New("product already in cart")
)

// quantitySnapshot - запись отката для одной незавершенной сверки.
// Хранится только до завершения сверки; применяется, только если с
// момента снимка позицию не изменила более новая мутация.
type quantitySnapshot struct {
	generation uint64
	seq        uint64
	quantity   int
	calculated *int64
}

// CartServiceImpl реализует интерфейс CartService: оптимистичная корзина
// с фоновой сверкой и откатом неудачных мутаций.
type CartServiceImpl struct {
	api      restPorts.CartAPI
	store    tokensPorts.Store
	notifier svcPorts.Notifier

	mu     sync.Mutex
	items  []entities.CartItem
	totals entities.CartTotals
	// generation растет при каждой авторитетной замене списка;
	// seq растет при каждой мутации позиции. Вместе они определяют,
	// не устарел ли снимок отката.
	generation uint64
	seq        map[string]uint64

	pending sync.WaitGroup
}

// NewCartService создает новый экземпляр сервиса корзины.
func NewCartService(api restPorts.CartAPI, store tokensPorts.Store, notifier svcPorts.Notifier) svcPorts.CartService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &CartServiceImpl{
		api:      api,
		store:    store,
		notifier: notifier,
		seq:      make(map[string]uint64),
	}
}

// Fetch выполняет авторитетную синхронизацию с сервером.
// Без сессии корзина локально пуста и сервер не вызывается.
func (s *CartServiceImpl) Fetch(ctx context.Context) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogCartFetch)

	if !s.hasSession(ctx) {
		s.replace(nil)
		return nil
	}

	items, err := s.api.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("cart fetch failed: %w", err)
	}

	s.replace(items)
	return nil
}

// Add добавляет изделие в корзину. Дубликат по идентичности изделия
// отклоняется до каких-либо изменений состояния.
func (s *CartServiceImpl) Add(ctx context.Context, req *dto.AddCartItemRequest) (*entities.CartItem, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogCartAdd, zap.String("product_id", req.ProductID))

	if req.Quantity < entities.MinQuantity {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ProductID == req.ProductID {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, req.ProductID)
		}
	}
	s.mu.Unlock()

	if !s.hasSession(ctx) {
		// Локальная корзина без сессии: позиция живет только в памяти.
		item := entities.CartItem{
			ID:        uuid.New().String(),
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Selection: entities.Selection{
				Metal:    req.Metal,
				Stone:    req.Stone,
				RingSize: req.RingSize,
			},
		}
		s.append(item)
		return &item, nil
	}

	item, err := s.api.Add(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("cart add failed: %w", err)
	}

	s.append(*item)
	return item, nil
}

// SetQuantity устанавливает количество позиции. Локальное состояние
// меняется немедленно, сверка с сервером идет в фоне; при ее отказе
// мутация откатывается к снимку, если ее не обогнала более новая.
func (s *CartServiceImpl) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogCartSetQuantity,
		zap.String("item_id", itemID),
		zap.Int("quantity", quantity))

	if quantity < entities.MinQuantity {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	idx := s.indexOfLocked(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	item := &s.items[idx]
	snap := quantitySnapshot{
		generation: s.generation,
		quantity:   item.Quantity,
		calculated: cloneInt64(item.CalculatedPrice),
	}

	// Известная серверная цена масштабируется пропорционально, чтобы
	// сохранить серверные надбавки; иначе действует локальная формула.
	var price int64
	if item.CalculatedPrice != nil {
		price = entities.RescalePrice(*item.CalculatedPrice, item.Quantity, quantity)
	} else {
		price = item.UnitPrice() * int64(quantity)
	}
	item.Quantity = quantity
	item.CalculatedPrice = &price

	s.seq[itemID]++
	snap.seq = s.seq[itemID]
	s.recomputeLocked()
	s.mu.Unlock()

	if !s.hasSession(ctx) {
		return nil
	}

	s.pending.Add(1)
	go s.reconcileQuantity(context.WithoutCancel(ctx), itemID, quantity, snap)
	return nil
}

// Remove удаляет позицию локально безусловно; серверное удаление идет
// в фоне и не откатывается - итоговое состояние уже совпадает с
// намерением пользователя, а осиротевшая серверная строка будет
// выметена следующим авторитетным Fetch.
func (s *CartServiceImpl) Remove(ctx context.Context, itemID string) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogCartRemove, zap.String("item_id", itemID))

	s.mu.Lock()
	idx := s.indexOfLocked(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.seq[itemID]++
	s.recomputeLocked()
	s.mu.Unlock()

	if !s.hasSession(ctx) {
		return nil
	}

	s.pending.Add(1)
	go s.bestEffort(context.WithoutCancel(ctx), MsgRemoveNotSynced, func(ctx context.Context) error {
		return s.api.Remove(ctx, itemID)
	})
	return nil
}

// Clear очищает корзину локально безусловно; серверная очистка идет
// в фоне и не откатывается.
func (s *CartServiceImpl) Clear(ctx context.Context) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogCartClear)

	s.replace(nil)

	if !s.hasSession(ctx) {
		return nil
	}

	s.pending.Add(1)
	go s.bestEffort(context.WithoutCancel(ctx), MsgClearNotSynced, func(ctx context.Context) error {
		return s.api.Clear(ctx)
	})
	return nil
}

// Items возвращает копию текущих позиций корзины.
func (s *CartServiceImpl) Items() []entities.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.CartItem, len(s.items))
	copy(items, s.items)
	for i := range items {
		items[i].CalculatedPrice = cloneInt64(items[i].CalculatedPrice)
	}
	return items
}

// Totals возвращает текущие агрегаты корзины.
func (s *CartServiceImpl) Totals() entities.CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Wait дожидается завершения всех фоновых сверок.
func (s *CartServiceImpl) Wait() {
	s.pending.Wait()
}

// reconcileQuantity отправляет новое количество на сервер и при отказе
// откатывает локальную мутацию, если ее не обогнала более новая.
func (s *CartServiceImpl) reconcileQuantity(ctx context.Context, itemID string, quantity int, snap quantitySnapshot) {
	defer s.pending.Done()

	err := s.api.UpdateQuantity(ctx, itemID, quantity)
	if err == nil {
		return
	}

	log := logger.Log(ctx)

	s.mu.Lock()
	superseded := snap.generation != s.generation || s.seq[itemID] != snap.seq
	if !superseded {
		if idx := s.indexOfLocked(itemID); idx >= 0 {
			s.items[idx].Quantity = snap.quantity
			s.items[idx].CalculatedPrice = snap.calculated
			s.recomputeLocked()
		}
	}
	s.mu.Unlock()

	if superseded {
		log.Debug(ctx, LogReconcileSuperseded, zap.String("item_id", itemID), zap.Error(err))
		return
	}

	log.Warn(ctx, LogReconcileFailed, zap.String("item_id", itemID), zap.Error(err))
	s.notifier.Notify(ctx, MsgQuantityReverted)
}

// bestEffort выполняет серверный вызов без отката локального состояния.
func (s *CartServiceImpl) bestEffort(ctx context.Context, failureMessage string, call func(context.Context) error) {
	defer s.pending.Done()

	if err := call(ctx); err != nil {
		logger.Log(ctx).Warn(ctx, LogBestEffortFailed, zap.Error(err))
		s.notifier.Notify(ctx, failureMessage)
	}
}

// replace заменяет позиции целиком и обесценивает все снимки отката.
func (s *CartServiceImpl) replace(items []entities.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.items = items
	s.recomputeLocked()
}

// append добавляет позицию, принятую сервером либо созданную локально.
func (s *CartServiceImpl) append(item entities.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, item)
	s.recomputeLocked()
}

// recomputeLocked пересчитывает агрегаты свёрткой по позициям.
// Единственный путь изменения totals.
func (s *CartServiceImpl) recomputeLocked() {
	s.totals = entities.TotalsOf(s.items)
}

func (s *CartServiceImpl) indexOfLocked(itemID string) int {
	for i := range s.items {
		if s.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// hasSession сообщает, есть ли у пользователя активная сессия.
func (s *CartServiceImpl) hasSession(ctx context.Context) bool {
	pair, err := s.store.Pair(ctx)
	return err == nil && pair.RefreshToken != ""
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// noopNotifier используется, когда поверхность не подключила уведомления.
type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string) {}
