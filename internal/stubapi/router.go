// Package stubapi собирает HTTP сервер-заглушку API магазина.
// Заглушка используется для локальной разработки и интеграционных
// тестов клиента вместо боевого API.
package stubapi

import (
	"github.com/gofiber/fiber/v3"

	"gemshop/internal/shop/domain/entities"
	"gemshop/internal/stubapi/config"
	"gemshop/internal/stubapi/handlers"
	"gemshop/internal/stubapi/middleware"
	"gemshop/internal/stubapi/state"
	"gemshop/internal/stubapi/tokens"
)

// NewApp создает приложение fiber с полной маршрутизацией заглушки.
func NewApp(cfg *config.Config) (*fiber.App, error) {
	st, err := state.New(state.Seed{
		AdminEmail:       cfg.Seed.AdminEmail,
		AdminPassword:    cfg.Seed.AdminPassword,
		CustomerEmail:    cfg.Seed.CustomerEmail,
		CustomerPassword: cfg.Seed.CustomerPassword,
	}, cfg.JWT.RefreshTTL())
	if err != nil {
		return nil, err
	}

	issuer := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL())

	app := fiber.New()
	SetupRouter(app, st, issuer)
	return app, nil
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, st *state.State, issuer *tokens.Issuer) {
	authHandler := handlers.NewAuthHandler(st, issuer)
	cartHandler := handlers.NewCartHandler(st)
	catalogHandler := handlers.NewCatalogHandler(st)

	// Middleware для всех запросов.
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	// Auth routes (публичные).
	authRoutes := app.Group("/api/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.Refresh)
	authRoutes.Post("/logout", authHandler.Logout)

	// Маршруты корзины (требуют авторизации).
	cartRoutes := app.Group("/cart")
	cartRoutes.Use(middleware.NewAuthMiddleware(issuer))
	cartRoutes.Get("/", cartHandler.List)
	cartRoutes.Post("/", cartHandler.Add)
	cartRoutes.Put("/:item_id", cartHandler.UpdateQuantity)
	cartRoutes.Delete("/:item_id", cartHandler.Remove)
	cartRoutes.Delete("/", cartHandler.Clear)

	// Чтение каталога публично, записи только для администраторов.
	// Охрана навешивается на конкретные маршруты, а не на группу:
	// групповое middleware сработало бы и на публичных GET.
	authGuard := middleware.NewAuthMiddleware(issuer)
	adminGuard := middleware.NewAdminMiddleware(entities.RoleAdmin)

	productRoutes := app.Group("/products")
	productRoutes.Get("/", catalogHandler.List)
	productRoutes.Get("/:product_id", catalogHandler.Get)
	productRoutes.Post("/", catalogHandler.Create, authGuard, adminGuard)
	productRoutes.Put("/:product_id", catalogHandler.Update, authGuard, adminGuard)
	productRoutes.Delete("/:product_id", catalogHandler.Delete, authGuard, adminGuard)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}
