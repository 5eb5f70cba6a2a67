package resilience

import (
	"context"

	"go.uber.org/zap"

	"gemshop/pkg/logger"
)

// ServiceResilience обеспечивает отказоустойчивость вызовов каталога:
// повторы с экспоненциальным отступом внутри Circuit Breaker.
// Применяется только к идемпотентным операциям чтения.
type ServiceResilience struct {
	serviceName    string
	circuitBreaker *CircuitBreaker
	retry          *Retry
}

// NewServiceResilience создает новую обертку отказоустойчивости для сервиса.
func NewServiceResilience(serviceName string, shouldRetry func(error) bool) *ServiceResilience {
	retryConfig := DefaultRetryConfig()
	if shouldRetry != nil {
		retryConfig.ShouldRetry = shouldRetry
	}

	return &ServiceResilience{
		serviceName:    serviceName,
		circuitBreaker: NewCircuitBreaker(serviceName, DefaultCircuitBreakerConfig()),
		retry:          NewRetry(serviceName, retryConfig),
	}
}

// Execute выполняет операцию с отказоустойчивостью.
func (r *ServiceResilience) Execute(
	ctx context.Context,
	operationName string,
	operation func() error,
) error {
	log := logger.Log(ctx).With(
		zap.String("service", r.serviceName),
		zap.String("operation", operationName),
	)
	log.Debug(ctx, "Executing operation with resilience")

	return r.circuitBreaker.Execute(ctx, func() error {
		return r.retry.Execute(ctx, operation)
	})
}

// ExecuteWithResult выполняет операцию с отказоустойчивостью и возвращает результат.
func ExecuteWithResult[T any](
	ctx context.Context,
	r *ServiceResilience,
	operationName string,
	operation func() (T, error),
) (T, error) {
	var result T

	err := r.Execute(ctx, operationName, func() error {
		var opErr error
		result, opErr = operation()
		if opErr != nil {
			logger.Log(ctx).Warn(ctx, "Operation failed",
				zap.String("service", r.serviceName),
				zap.String("operation", operationName),
				zap.Error(opErr))
			return opErr
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
