package services

import (
	"context"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/domain/entities"
)

// CartService определяет интерфейс оптимистичной корзины.
// Мутации применяются к локальному состоянию синхронно; сверка с сервером
// происходит в фоне, неудачная сверка откатывает локальную мутацию.
type CartService interface {
	// Fetch выполняет авторитетную синхронизацию: локальные позиции
	// заменяются серверным представлением целиком.
	Fetch(ctx context.Context) error

	// Add добавляет изделие в корзину. Повторное добавление того же
	// изделия отклоняется без изменения состояния.
	Add(ctx context.Context, req *dto.AddCartItemRequest) (*entities.CartItem, error)

	// SetQuantity устанавливает количество позиции. Значения меньше
	// единицы отклоняются: удаление - отдельная операция.
	SetQuantity(ctx context.Context, itemID string, quantity int) error

	// Remove удаляет позицию локально безусловно; серверное удаление
	// выполняется по мере возможности и не откатывается.
	Remove(ctx context.Context, itemID string) error

	// Clear очищает корзину локально безусловно.
	Clear(ctx context.Context) error

	// Items возвращает копию текущих позиций корзины.
	Items() []entities.CartItem

	// Totals возвращает текущие агрегаты корзины.
	Totals() entities.CartTotals

	// Wait дожидается завершения всех фоновых сверок с сервером.
	// Используется при остановке приложения и в тестах.
	Wait()
}

// Notifier получает пользовательские уведомления об ошибках фоновых
// операций корзины.
type Notifier interface {
	Notify(ctx context.Context, message string)
}
