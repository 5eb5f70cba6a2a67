// Storefront - покупательская поверхность клиента магазина.
// Выполняет вход (если заданы учетные данные), сверяет срок жизни
// сохраненного токена, синхронизирует корзину и каталог.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"gemshop/internal/shop/adapters/session"
	"gemshop/internal/shop/app"
	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/config"
	"gemshop/pkg/logger"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "SHOP_LOGGER_MODE"
	EnvLoggerLevel = "SHOP_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrBuildClient          = "failed to build shop client"
	ErrLogin                = "login failed"
	ErrFetchCart            = "failed to fetch cart"
	ErrListCatalog          = "failed to list catalog"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogClientStarted   = "storefront client started"
	LogClientDone      = "storefront client finished"
	LogSessionEnded    = "session ended, login required"
	LogNoSession       = "no stored session, browsing as guest"
	LogLoggedIn        = "logged in"
	LogCatalogFetched  = "catalog fetched"
	LogCartSynced      = "cart synchronized"
	LogClosingStore    = "closing token store"
	LogWaitingForSyncs = "waiting for background cart syncs"
)

// logNotifier выводит пользовательские уведомления через логгер.
type logNotifier struct{}

func (logNotifier) Notify(ctx context.Context, message string) {
	logger.Log(ctx).Warn(ctx, "notification", zap.String("message", message))
}

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogClientStarted,
			zap.String("environment", string(env)),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		client, err := app.New(ctx, cfg, app.Options{
			Notifier: logNotifier{},
			OnSessionEnded: func() {
				log.Warn(ctx, LogSessionEnded)
			},
		})
		if err != nil {
			log.Error(ctx, ErrBuildClient, zap.Error(err))
			exitCode = 1
			return
		}
		defer func() {
			log.Info(ctx, LogClosingStore)
			if err := client.Close(); err != nil {
				log.Error(ctx, "failed to close client", zap.Error(err))
			}
		}()

		if cfg.Credentials.Provided() && !client.Auth.HasSession(ctx) {
			if _, err := client.Auth.Login(ctx, &dto.LoginRequest{
				Email:    cfg.Credentials.Email,
				Password: cfg.Credentials.Password,
			}); err != nil {
				log.Error(ctx, ErrLogin, zap.Error(err))
				exitCode = 1
				return
			}
			log.Info(ctx, LogLoggedIn, zap.String("email", cfg.Credentials.Email))
		}

		// Проверка срока жизни токена на старте консультативная: даже
		// пропущенное здесь истечение будет обработано первым же запросом.
		if err := client.Guard.CheckStartupExpiry(ctx); err != nil {
			if errors.Is(err, session.ErrSessionEnded) {
				log.Warn(ctx, LogSessionEnded)
			} else {
				log.Warn(ctx, "startup token check failed", zap.Error(err))
			}
		}

		products, err := client.Catalog.List(ctx)
		if err != nil {
			log.Error(ctx, ErrListCatalog, zap.Error(err))
			exitCode = 1
			return
		}
		log.Info(ctx, LogCatalogFetched, zap.Int("products", len(products)))

		if !client.Auth.HasSession(ctx) {
			log.Info(ctx, LogNoSession)
		}

		if err := client.Cart.Fetch(ctx); err != nil {
			log.Error(ctx, ErrFetchCart, zap.Error(err))
			exitCode = 1
			return
		}

		totals := client.Cart.Totals()
		log.Info(ctx, LogCartSynced,
			zap.Int("items", len(client.Cart.Items())),
			zap.Int("total_quantity", totals.Quantity),
			zap.Int64("total_price", totals.Price))

		log.Info(ctx, LogWaitingForSyncs)
		client.Cart.Wait()

		log.Info(ctx, LogClientDone)
	}()

	os.Exit(exitCode)
}
