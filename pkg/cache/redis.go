package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/diillson/equipment-lending/pkg/config"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NewRedisClient abre um cliente Redis com as opções da configuração e testa a conexão
func NewRedisClient(ctx context.Context, opts config.RedisOptions, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		DialTimeout:  opts.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Falha ao conectar ao Redis", zap.String("addr", opts.Address), zap.Error(err))
		_ = client.Close()
		return nil, fmt.Errorf("falha ao conectar ao Redis em %s: %w", opts.Address, err)
	}

	logger.Info("Conexão com Redis estabelecida",
		zap.String("addr", opts.Address),
		zap.Int("db", opts.DB))

	return client, nil
}

// RedisCache implementa a interface Cache usando Redis
type RedisCache struct {
	client   redis.UniversalClient
	logger   *zap.Logger
	tracer   trace.Tracer
	hits     int64
	misses   int64
	observer HitRatioObserver
}

// NewRedisCache cria o cache sobre um cliente já conectado. observer pode ser nil.
func NewRedisCache(client redis.UniversalClient, observer HitRatioObserver, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client:   client,
		logger:   logger,
		tracer:   otel.GetTracerProvider().Tracer("equipment-lending.cache.redis"),
		observer: observer,
	}
}

func (c *RedisCache) start(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("cache.operation", operation))
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func spanError(span trace.Span, status string, err error) {
	span.SetStatus(codes.Error, status)
	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String("error.message", err.Error()),
	)
}

// Set armazena um valor no cache
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	ctx, span := c.start(ctx, "RedisCache.Set", "set",
		attribute.String("cache.key", key),
		attribute.Int64("cache.expiration_ms", expiration.Milliseconds()),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		spanError(span, "serialization failure", err)
		return fmt.Errorf("falha ao serializar para cache: %w", err)
	}
	span.SetAttributes(attribute.Int("cache.data_size_bytes", len(data)))

	if err := c.client.Set(ctx, KeyPrefix+key, data, expiration).Err(); err != nil {
		c.logger.Error("falha ao armazenar no Redis", zap.String("key", key), zap.Error(err))
		spanError(span, "redis error", err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Get recupera um valor do cache
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	ctx, span := c.start(ctx, "RedisCache.Get", "get", attribute.String("cache.key", key))
	defer span.End()

	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(&c.misses)
		span.SetStatus(codes.Ok, "cache miss")
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return false, nil
	}
	if err != nil {
		c.logger.Error("falha ao recuperar do cache", zap.String("key", key), zap.Error(err))
		spanError(span, "redis error", err)
		return false, err
	}
	c.record(&c.hits)

	span.SetAttributes(
		attribute.Bool("cache.hit", true),
		attribute.Int("cache.data_size_bytes", len(data)),
	)

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("falha ao deserializar do cache", zap.String("key", key), zap.Error(err))
		spanError(span, "deserialization failure", err)
		return false, err
	}

	span.SetStatus(codes.Ok, "cache hit")
	return true, nil
}

// Delete remove um valor do cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, span := c.start(ctx, "RedisCache.Delete", "delete", attribute.String("cache.key", key))
	defer span.End()

	removed, err := c.client.Del(ctx, KeyPrefix+key).Result()
	if err != nil {
		c.logger.Error("falha ao remover do cache", zap.String("key", key), zap.Error(err))
		spanError(span, "redis error", err)
		return err
	}

	span.SetAttributes(attribute.Int64("cache.keys_removed", removed))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Clear remove todas as chaves com o prefixo da aplicação
func (c *RedisCache) Clear(ctx context.Context) error {
	ctx, span := c.start(ctx, "RedisCache.Clear", "clear", attribute.String("cache.pattern", KeyPrefix+"*"))
	defer span.End()

	var removed int64
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			spanError(span, "redis delete error", err)
			return err
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("falha ao listar chaves do cache", zap.Error(err))
		spanError(span, "redis error", err)
		return err
	}

	span.SetAttributes(attribute.Int64("cache.keys_removed", removed))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Ping verifica se o Redis está acessível
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, span := c.start(ctx, "RedisCache.Ping", "ping")
	defer span.End()

	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Error("falha ao fazer ping no Redis", zap.Error(err))
		spanError(span, "redis ping failure", err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *RedisCache) record(counter *int64) {
	atomic.AddInt64(counter, 1)
	if c.observer == nil {
		return
	}

	hits, misses := atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
	if total := hits + misses; total > 0 {
		c.observer.UpdateCacheHitRatio("redis", float64(hits)/float64(total))
	}
}
