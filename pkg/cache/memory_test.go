package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type ratioObserver struct {
	cacheType string
	ratio     float64
}

func (o *ratioObserver) UpdateCacheHitRatio(cacheType string, hitRatio float64) {
	o.cacheType = cacheType
	o.ratio = hitRatio
}

type item struct {
	Code string `json:"code"`
	Rate *float64
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	observer := &ratioObserver{}
	c := NewMemoryCache(time.Minute, time.Minute, observer, zaptest.NewLogger(t))

	t.Run("miss", func(t *testing.T) {
		var dest []item
		found, err := c.Get(ctx, "equipment:all", &dest)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("hit devolve cópia", func(t *testing.T) {
		rate := 10.0
		stored := []item{{Code: "NB-01", Rate: &rate}, {Code: "NB-02"}}
		require.NoError(t, c.Set(ctx, "equipment:all", stored, time.Minute))

		stored[0].Code = "alterado"

		var dest []item
		found, err := c.Get(ctx, "equipment:all", &dest)
		require.NoError(t, err)
		assert.True(t, found)
		require.Len(t, dest, 2)
		assert.Equal(t, "NB-01", dest[0].Code)
		assert.Equal(t, 10.0, *dest[0].Rate)
		assert.Nil(t, dest[1].Rate)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, "equipment:all"))

		var dest []item
		found, err := c.Get(ctx, "equipment:all", &dest)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "a", "x", time.Minute))
		require.NoError(t, c.Clear(ctx))

		var dest string
		found, err := c.Get(ctx, "a", &dest)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("taxa de acertos", func(t *testing.T) {
		hits, misses := c.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(3), misses)
		assert.Equal(t, "memory", observer.cacheType)
		assert.InDelta(t, 0.25, observer.ratio, 1e-9)
	})
}

func TestMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute, nil, zaptest.NewLogger(t))

	require.NoError(t, c.Set(ctx, "k", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var dest int
	found, err := c.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
}
