// Admin - административная поверхность клиента магазина.
// Использует отдельное пространство имен хранилища токенов, чтобы
// сессия администратора не пересекалась с покупательской.
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
	"gemshop/internal/shop/domain/entities"
	"gemshop/pkg/logger"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "SHOP_LOGGER_MODE"
	EnvLoggerLevel = "SHOP_LOGGER_LEVEL"
	EnvNamespace   = "SHOP_STORE_NAMESPACE"
)

// AdminNamespace - пространство имен хранилища токенов по умолчанию
// для административной поверхности.
const AdminNamespace = "admin"

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrBuildClient          = "failed to build shop client"
	ErrLogin                = "login failed"
	ErrNotAdmin             = "logged in user is not an administrator"
	ErrListCatalog          = "failed to list catalog"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogConsoleStarted = "admin console started"
	LogConsoleDone    = "admin console finished"
	LogSessionEnded   = "session ended, login required"
	LogLoggedIn       = "logged in"
	LogCatalogFetched = "catalog fetched"
	LogClosingStore   = "closing token store"
)

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

		log.Info(ctx, LogConsoleStarted,
			zap.String("environment", string(env)),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		namespace := AdminNamespace
		if v := os.Getenv(EnvNamespace); v != "" {
			namespace = v
		}

		client, err := app.New(ctx, cfg, app.Options{
			Namespace: namespace,
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
			response, err := client.Auth.Login(ctx, &dto.LoginRequest{
				Email:    cfg.Credentials.Email,
				Password: cfg.Credentials.Password,
			})
			if err != nil {
				log.Error(ctx, ErrLogin, zap.Error(err))
				exitCode = 1
				return
			}
			if response.User != nil && response.User.Role != entities.RoleAdmin {
				log.Error(ctx, ErrNotAdmin, zap.String("role", response.User.Role))
				exitCode = 1
				return
			}
			log.Info(ctx, LogLoggedIn, zap.String("email", cfg.Credentials.Email))
		}

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

		log.Info(ctx, LogConsoleDone)
	}()

	os.Exit(exitCode)
}
