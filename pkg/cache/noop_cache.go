package cache

import (
	"context"
	"time"
)

// NoOpCache é usada quando o cache está desabilitado na configuração.
// Toda leitura é um miss, então os serviços sempre consultam o banco.
type NoOpCache struct{}

func (c *NoOpCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (c *NoOpCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Ping(ctx context.Context) error {
	return nil
}
