package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryCache implementa Cache sobre go-cache. Os valores são guardados já
// serializados, então quem lê recebe sempre uma cópia.
type MemoryCache struct {
	cache    *gocache.Cache
	logger   *zap.Logger
	hits     int64
	misses   int64
	observer HitRatioObserver
}

// NewMemoryCache cria uma nova instância de MemoryCache. observer pode ser nil.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration, observer HitRatioObserver, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		cache:    gocache.New(defaultExpiration, cleanupInterval),
		logger:   logger,
		observer: observer,
	}
}

// Set armazena um valor no cache
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("falha ao serializar para cache: %w", err)
	}

	c.cache.Set(KeyPrefix+key, data, expiration)
	return nil
}

// Get recupera um valor do cache
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	value, found := c.cache.Get(KeyPrefix + key)
	if !found {
		c.record(&c.misses)
		return false, nil
	}
	c.record(&c.hits)

	data, ok := value.([]byte)
	if !ok {
		c.cache.Delete(KeyPrefix + key)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("falha ao deserializar do cache", zap.String("key", key), zap.Error(err))
		return false, err
	}

	return true, nil
}

// Delete remove um valor do cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Delete(KeyPrefix + key)
	return nil
}

// Clear remove todos os valores do cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.cache.Flush()
	return nil
}

// Ping verifica se o cache está funcionando
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Stats devolve acertos e falhas acumulados
func (c *MemoryCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func (c *MemoryCache) record(counter *int64) {
	atomic.AddInt64(counter, 1)
	if c.observer == nil {
		return
	}

	hits, misses := c.Stats()
	if total := hits + misses; total > 0 {
		c.observer.UpdateCacheHitRatio("memory", float64(hits)/float64(total))
	}
}
