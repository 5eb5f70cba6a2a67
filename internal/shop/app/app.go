// Package app собирает клиент магазина из адаптеров и сервисов.
package app

import (
	"context"
	"fmt"

	"gemshop/internal/shop/adapters/rest"
	"gemshop/internal/shop/adapters/session"
	"gemshop/internal/shop/adapters/tokenstore"
	"gemshop/internal/shop/app/services"
	"gemshop/internal/shop/config"
	svcPorts "gemshop/internal/shop/ports/services"
	tokensPorts "gemshop/internal/shop/ports/tokens"
)

// Бэкенды хранилища токенов.
const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

// Options содержит параметры сборки, различающиеся между поверхностями.
type Options struct {
	// Namespace - пространство имен хранилища токенов поверхности.
	Namespace string
	// Notifier получает уведомления об ошибках фоновых операций корзины.
	Notifier svcPorts.Notifier
	// OnSessionEnded вызывается после терминального отказа обновления токена.
	OnSessionEnded func()
}

// App содержит собранный клиент магазина.
type App struct {
	Store   tokensPorts.Store
	Guard   *session.Guard
	Auth    svcPorts.AuthService
	Cart    svcPorts.CartService
	Catalog svcPorts.CatalogService
}

// New собирает клиент магазина по конфигурации.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	store, err := newStore(ctx, cfg, opts.Namespace)
	if err != nil {
		return nil, err
	}

	guard := session.New(store, session.Config{
		RefreshURL:     cfg.API.RefreshURL(),
		Timeout:        cfg.API.Timeout,
		OnSessionEnded: opts.OnSessionEnded,
	})

	client := rest.NewClient(cfg.API.BaseURL, guard)

	return &App{
		Store:   store,
		Guard:   guard,
		Auth:    services.NewAuthService(rest.NewAuthClient(client), store),
		Cart:    services.NewCartService(rest.NewCartClient(client), store, opts.Notifier),
		Catalog: services.NewCatalogService(rest.NewCatalogClient(client)),
	}, nil
}

// Close освобождает ресурсы клиента.
func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("closing token store: %w", err)
	}
	return nil
}

func newStore(ctx context.Context, cfg *config.Config, namespace string) (tokensPorts.Store, error) {
	if namespace == "" {
		namespace = cfg.Store.Namespace
	}

	switch cfg.Store.Backend {
	case StoreBackendRedis:
		store, err := tokenstore.NewRedisStore(ctx, &cfg.Redis, namespace)
		if err != nil {
			return nil, fmt.Errorf("creating redis token store: %w", err)
		}
		return store, nil
	case StoreBackendFile:
		store, err := tokenstore.NewFileStore(cfg.Store.Dir, namespace)
		if err != nil {
			return nil, fmt.Errorf("creating file token store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown token store backend %q", cfg.Store.Backend)
	}
}
