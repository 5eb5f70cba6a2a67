package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gemshop/pkg/logger"
)

// RetryConfig содержит настройки для retry механизма.
type RetryConfig struct {
	// MaxAttempts - максимальное количество попыток (включая первую).
	MaxAttempts int
	// InitialBackoff - начальная задержка между попытками.
	InitialBackoff time.Duration
	// MaxBackoff - максимальная задержка между попытками.
	MaxBackoff time.Duration
	// BackoffFactor - множитель для экспоненциального отступа.
	BackoffFactor float64
	// ShouldRetry - функция для определения, нужно ли повторять запрос для данной ошибки.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig возвращает конфигурацию retry механизма по умолчанию.
// Значения рассчитаны на чтение каталога: три попытки укладываются в
// таймаут HTTP клиента даже при максимальном отступе.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		BackoffFactor:  2.0,
		ShouldRetry:    defaultShouldRetry,
	}
}

// ErrContextCanceled возвращается, когда контекст был отменен во время
// ожидания перед повторной попыткой.
var ErrContextCanceled = errors.New("context was canceled during retry")

// defaultShouldRetry повторяет любую ошибку, кроме отмены контекста.
// Сервисы передают собственный предикат, исключающий ошибки, по которым
// повтор бессмыслен (авторизация, отсутствие ресурса, валидация).
func defaultShouldRetry(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Константы для логирования.
const (
	LogRetryOperation   = "retry operation"
	LogRetryAttempt     = "retry attempt"
	LogRetrySuccess     = "retry succeeded"
	LogRetryMaxAttempts = "retry max attempts reached"
)

// Retry выполняет функцию с повторными попытками.
type Retry struct {
	name   string
	config RetryConfig
}

// NewRetry создает новый экземпляр retry механизма.
func NewRetry(name string, config RetryConfig) *Retry {
	return &Retry{
		name:   name,
		config: config,
	}
}

// Execute выполняет операцию с автоматическими повторными попытками.
// Ошибка операции возвращается без оборачивания, чтобы вызывающий мог
// проверять sentinel ошибки через errors.Is.
func (r *Retry) Execute(ctx context.Context, operation func() error) error {
	log := logger.Log(ctx).With(zap.String("retry", r.name))
	log.Debug(ctx, LogRetryOperation)

	var err error

	for attempt := 1; ; attempt++ {
		err = operation()
		if err == nil {
			if attempt > 1 {
				log.Info(ctx, LogRetrySuccess, zap.Int("attempts", attempt))
			}
			return nil
		}

		if !r.config.ShouldRetry(err) {
			return err
		}

		if attempt >= r.config.MaxAttempts {
			log.Warn(ctx, LogRetryMaxAttempts,
				zap.Int("attempts", attempt),
				zap.Error(err))
			return err
		}

		backoff := r.backoffFor(attempt)
		log.Info(ctx, LogRetryAttempt,
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		}
	}
}

// backoffFor возвращает задержку перед попыткой attempt+1.
func (r *Retry) backoffFor(attempt int) time.Duration {
	backoff := r.config.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * r.config.BackoffFactor)
		if backoff >= r.config.MaxBackoff {
			return r.config.MaxBackoff
		}
	}
	return backoff
}
