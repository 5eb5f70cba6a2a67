// Package tokens определяет интерфейс персистентного хранилища сессии.
package tokens

import (
	"context"

	"gemshop/internal/shop/domain/entities"
)

// Store определяет интерфейс для хранения пары токенов и кэшированного
// профиля пользователя. Реализации обязаны изолировать данные по
// namespace поверхности (storefront, admin), чтобы параллельные сессии
// не пересекались.
//
// Инвариант пары: SavePair и Clear атомарны - после любого исхода
// в хранилище либо оба токена, либо ни одного.
type Store interface {
	// Pair возвращает сохраненную пару токенов. Отсутствие пары - это
	// пустая пара и nil ошибка.
	Pair(ctx context.Context) (entities.TokenPair, error)

	// SavePair сохраняет оба токена атомарно.
	SavePair(ctx context.Context, pair entities.TokenPair) error

	// Profile возвращает кэшированный профиль или nil, если его нет.
	Profile(ctx context.Context) (*entities.UserProfile, error)

	// SaveProfile сохраняет кэшированный профиль.
	SaveProfile(ctx context.Context, profile *entities.UserProfile) error

	// Clear удаляет пару токенов и профиль в рамках своего namespace.
	Clear(ctx context.Context) error

	Close() error
}
