package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrCircuitOpen é retornado quando o circuit breaker está aberto
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitState representa os estados possíveis do circuit breaker
type CircuitState int

const (
	StateClose CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// StateObserver é notificado quando o circuito abre ou fecha
type StateObserver interface {
	CircuitBreakerStateChanged(name string, open bool)
}

// CircuitBreakerConfig contém a configuração do circuit breaker
type CircuitBreakerConfig struct {
	Name            string
	MaxRequestsFail int           // Falhas consecutivas antes de abrir o circuito
	Timeout         time.Duration // Tempo que o circuito fica aberto antes de tentar half-open
	MaxRequests     int           // Número máximo de requisições no estado half-open
}

// CircuitBreaker implementa o pattern Circuit Breaker
type CircuitBreaker struct {
	name        string
	maxFails    int
	timeout     time.Duration
	maxRequests int

	mutex            sync.Mutex
	state            CircuitState
	failCount        int
	nextAttemptTime  time.Time
	halfOpenRequests int

	now      func() time.Time
	logger   *zap.Logger
	observer StateObserver
}

// NewCircuitBreaker cria um novo circuit breaker. observer pode ser nil.
func NewCircuitBreaker(config CircuitBreakerConfig, logger *zap.Logger, observer StateObserver) *CircuitBreaker {
	if config.MaxRequestsFail <= 0 {
		config.MaxRequestsFail = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 1
	}

	return &CircuitBreaker{
		name:        config.Name,
		maxFails:    config.MaxRequestsFail,
		timeout:     config.Timeout,
		maxRequests: config.MaxRequests,
		state:       StateClose,
		now:         time.Now,
		logger:      logger,
		observer:    observer,
	}
}

// Execute executa a função com circuit breaker
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	// cancelamento do chamador não conta como falha da dependência
	cb.recordResult(err == nil || errors.Is(err, context.Canceled))
	return err
}

// allowRequest verifica se a requisição deve ser permitida com base no estado atual
func (cb *CircuitBreaker) allowRequest() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if !cb.now().After(cb.nextAttemptTime) {
			return false
		}
		cb.toHalfOpen()
		fallthrough

	case StateHalfOpen:
		if cb.halfOpenRequests >= cb.maxRequests {
			return false
		}
		cb.halfOpenRequests++
		return true
	}

	return true
}

// recordResult atualiza o estado do circuit breaker com base no resultado da requisição
func (cb *CircuitBreaker) recordResult(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClose:
		if success {
			cb.failCount = 0
			return
		}
		cb.failCount++
		if cb.failCount >= cb.maxFails {
			cb.toOpen()
		}

	case StateHalfOpen:
		if success {
			cb.toClose()
		} else {
			cb.toOpen()
		}
	}
}

func (cb *CircuitBreaker) toOpen() {
	cb.state = StateOpen
	cb.nextAttemptTime = cb.now().Add(cb.timeout)

	if cb.observer != nil {
		cb.observer.CircuitBreakerStateChanged(cb.name, true)
	}

	cb.logger.Warn("circuit breaker mudou para estado aberto",
		zap.String("name", cb.name),
		zap.Time("nextAttempt", cb.nextAttemptTime))
}

func (cb *CircuitBreaker) toHalfOpen() {
	cb.state = StateHalfOpen
	cb.halfOpenRequests = 0
	cb.logger.Info("circuit breaker mudou para estado meio-aberto", zap.String("name", cb.name))
}

func (cb *CircuitBreaker) toClose() {
	wasOpen := cb.state != StateClose
	cb.state = StateClose
	cb.failCount = 0
	cb.halfOpenRequests = 0

	if wasOpen {
		if cb.observer != nil {
			cb.observer.CircuitBreakerStateChanged(cb.name, false)
		}
		cb.logger.Info("circuit breaker mudou para estado fechado", zap.String("name", cb.name))
	}
}

// GetState retorna o estado atual do circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Reset reseta o circuit breaker para o estado fechado
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.toClose()
}
