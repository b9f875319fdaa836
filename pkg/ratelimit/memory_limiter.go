package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// MemoryLimiter é um token bucket por chave, local ao processo.
// Buckets parados expiram sozinhos.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets *gocache.Cache
	idle    time.Duration
}

// NewMemoryLimiter cria o limitador. idle é o tempo sem uso até o bucket ser descartado.
func NewMemoryLimiter(idle time.Duration) *MemoryLimiter {
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &MemoryLimiter{
		buckets: gocache.New(idle, time.Minute),
		idle:    idle,
	}
}

// Allow consome um token do bucket da chave
func (l *MemoryLimiter) Allow(ctx context.Context, config LimitConfig) (Result, error) {
	if err := config.validate(); err != nil {
		return Result{Allowed: true}, err
	}

	burst := config.Burst
	if burst <= 0 {
		burst = config.Limit
	}

	l.mu.Lock()
	var limiter *rate.Limiter
	if v, ok := l.buckets.Get(config.Key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rate.Every(config.Period/time.Duration(config.Limit)), burst)
	}
	// renova a expiração a cada uso
	l.buckets.Set(config.Key, limiter, l.idle)
	l.mu.Unlock()

	now := time.Now()
	allowed := limiter.AllowN(now, 1)
	tokens := limiter.TokensAt(now)

	result := Result{
		Allowed:   allowed,
		Limit:     burst,
		Remaining: int(math.Max(0, math.Floor(tokens))),
	}
	if tokens < 1 {
		perToken := config.Period / time.Duration(config.Limit)
		result.ResetAfter = time.Duration((1 - tokens) * float64(perToken))
	}
	return result, nil
}
