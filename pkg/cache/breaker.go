package cache

import (
	"context"
	"time"

	"github.com/diillson/equipment-lending/pkg/resilience"
)

// BreakerCache protege um cache remoto com um circuit breaker. Com o circuito
// aberto as operações falham na hora com resilience.ErrCircuitOpen.
type BreakerCache struct {
	inner   Cache
	breaker *resilience.CircuitBreaker
}

// NewBreakerCache envolve inner com o circuit breaker
func NewBreakerCache(inner Cache, breaker *resilience.CircuitBreaker) *BreakerCache {
	return &BreakerCache{inner: inner, breaker: breaker}
}

func (c *BreakerCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.inner.Set(ctx, key, value, expiration)
	})
}

func (c *BreakerCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var found bool
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		found, err = c.inner.Get(ctx, key, dest)
		return err
	})
	return found, err
}

func (c *BreakerCache) Delete(ctx context.Context, key string) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.inner.Delete(ctx, key)
	})
}

func (c *BreakerCache) Clear(ctx context.Context) error {
	return c.breaker.Execute(ctx, c.inner.Clear)
}

// Ping ignora o circuito para que o health check veja o estado real
func (c *BreakerCache) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}
