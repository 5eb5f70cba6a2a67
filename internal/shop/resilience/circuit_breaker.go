// Package resilience содержит механизмы отказоустойчивости для вызовов
// удаленного API каталога.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"gemshop/pkg/logger"
)

// CircuitState представляет состояние Circuit Breaker.
type CircuitState int

// Состояния Circuit Breaker.
const (
	// StateClosed - нормальное состояние, запросы проходят.
	StateClosed CircuitState = iota
	// StateOpen - состояние отказа, запросы блокируются.
	StateOpen
	// StateHalfOpen - промежуточное состояние, пробные запросы.
	StateHalfOpen
)

// Константы для логирования.
const (
	LogCircuitStateChange = "circuit breaker state changed"
	LogCircuitTrip        = "circuit breaker tripped"
	LogCircuitReset       = "circuit breaker reset"
	LogCircuitAllowRetry  = "circuit breaker allowing retry"
	LogCircuitReject      = "circuit breaker rejected request"
)

// Ошибки Circuit Breaker.
var (
	// ErrCircuitOpen возвращается, когда Circuit Breaker находится в открытом состоянии.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreakerConfig содержит настройки Circuit Breaker.
type CircuitBreakerConfig struct {
	// ErrorThreshold - максимальное количество ошибок перед переключением в открытое состояние.
	ErrorThreshold int
	// Timeout - таймаут после которого Circuit Breaker переходит в полуоткрытое состояние.
	Timeout time.Duration
	// SuccessThreshold - количество успешных запросов для перехода в закрытое состояние.
	SuccessThreshold int
}

// DefaultCircuitBreakerConfig возвращает конфигурацию Circuit Breaker по умолчанию.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		ErrorThreshold:   5,
		Timeout:          10 * time.Second,
		SuccessThreshold: 2,
	}
}

// CircuitBreaker реализует паттерн Circuit Breaker.
type CircuitBreaker struct {
	name string
	mu   sync.Mutex

	state           CircuitState
	config          CircuitBreakerConfig
	failures        int
	successes       int
	lastStateChange time.Time
}

// NewCircuitBreaker создает новый экземпляр Circuit Breaker.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:            name,
		state:           StateClosed,
		config:          config,
		lastStateChange: time.Now(),
	}
}

// Execute выполняет функцию с защитой Circuit Breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.allowRequest(ctx) {
		return ErrCircuitOpen
	}

	err := fn()
	cb.recordResult(ctx, err)
	return err
}

// allowRequest проверяет возможность выполнения запроса и при
// необходимости переводит breaker из открытого в полуоткрытое состояние.
func (cb *CircuitBreaker) allowRequest(ctx context.Context) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	log := logger.Log(ctx).With(
		zap.String("circuit_breaker", cb.name),
		zap.Int("circuit_state", int(cb.state)),
	)

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastStateChange) > cb.config.Timeout {
			cb.state = StateHalfOpen
			cb.lastStateChange = time.Now()
			log.Info(ctx, LogCircuitStateChange, zap.Int("new_state", int(StateHalfOpen)))
			log.Info(ctx, LogCircuitAllowRetry)
			return true
		}
		log.Info(ctx, LogCircuitReject)
		return false
	case StateHalfOpen:
		log.Info(ctx, LogCircuitAllowRetry)
		return true
	default:
		return false
	}
}

// recordResult записывает результат выполнения функции.
func (cb *CircuitBreaker) recordResult(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	log := logger.Log(ctx).With(
		zap.String("circuit_breaker", cb.name),
		zap.Int("circuit_state", int(cb.state)),
	)

	if err != nil {
		cb.successes = 0
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.config.ErrorThreshold {
			if cb.state != StateOpen {
				cb.state = StateOpen
				cb.lastStateChange = time.Now()
				cb.failures = 0
				log.Warn(ctx, LogCircuitTrip)
			}
		}
		return
	}

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.lastStateChange = time.Now()
			cb.successes = 0
			log.Info(ctx, LogCircuitReset)
		}
	}
}
