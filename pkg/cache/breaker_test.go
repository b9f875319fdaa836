package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diillson/equipment-lending/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type failingCache struct {
	NoOpCache
	calls int
}

func (f *failingCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	f.calls++
	return false, errors.New("conexão recusada")
}

func (f *failingCache) Ping(ctx context.Context) error {
	return errors.New("conexão recusada")
}

func TestBreakerCache(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("repassa ao cache interno", func(t *testing.T) {
		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "cache"}, logger, nil)
		c := NewBreakerCache(NewMemoryCache(time.Minute, time.Minute, nil, logger), breaker)

		require.NoError(t, c.Set(ctx, "k", []string{"a"}, time.Minute))
		var got []string
		found, err := c.Get(ctx, "k", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []string{"a"}, got)
	})

	t.Run("abre após falhas consecutivas", func(t *testing.T) {
		inner := &failingCache{}
		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "cache", MaxRequestsFail: 2, Timeout: time.Hour}, logger, nil)
		c := NewBreakerCache(inner, breaker)

		var dest []string
		for i := 0; i < 2; i++ {
			_, err := c.Get(ctx, "k", &dest)
			assert.Error(t, err)
		}

		_, err := c.Get(ctx, "k", &dest)
		assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
		assert.Equal(t, 2, inner.calls)

		assert.Error(t, c.Ping(ctx))
	})
}
