// Stubapi - сервер-заглушка API магазина для локальной разработки.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"gemshop/internal/stubapi"
	"gemshop/internal/stubapi/config"
	"gemshop/pkg/logger"
	"gemshop/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "STUB_LOG_MODE"
	EnvLoggerLevel = "STUB_LOG_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrBuildApp             = "failed to build stub API"
	ErrStartHTTPServer      = "failed to start HTTP server"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "stub API started"
	LogServiceShutdownDone = "stub API shutdown complete"
	LogStartingHTTP        = "starting HTTP server"
	LogStoppingHTTP        = "stopping HTTP server"
)

// shutdownTimeout - время на корректную остановку сервера.
const shutdownTimeout = 5 * time.Second

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

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(env)),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		app, err := stubapi.NewApp(cfg)
		if err != nil {
			log.Error(ctx, ErrBuildApp, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.Address()))
		go func() {
			if err := app.Listen(cfg.HTTP.Address()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		shutdown.Wait(shutdownTimeout,
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				return app.ShutdownWithContext(ctx)
			},
		)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	os.Exit(exitCode)
}
