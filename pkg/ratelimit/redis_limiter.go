package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Janela fixa: INCR na chave da janela, com expiração no fim dela
var windowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIREAT', KEYS[1], tonumber(ARGV[1]))
end
return count
`)

// RedisLimiter implementa rate limiting compartilhado entre instâncias usando Redis
type RedisLimiter struct {
	client redis.UniversalClient
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewRedisLimiter cria um novo limitador baseado em Redis
func NewRedisLimiter(client redis.UniversalClient, logger *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		logger: logger,
		tracer: otel.GetTracerProvider().Tracer("equipment-lending.ratelimit"),
		now:    time.Now,
	}
}

// Allow conta a requisição na janela atual. Burst não se aplica à janela fixa.
func (r *RedisLimiter) Allow(ctx context.Context, config LimitConfig) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "RedisLimiter.Allow", trace.WithAttributes(
		attribute.String("ratelimit.key", config.Key),
		attribute.Int("ratelimit.limit", config.Limit),
		attribute.Int64("ratelimit.period_ms", config.Period.Milliseconds()),
	))
	defer span.End()

	if err := config.validate(); err != nil {
		span.SetStatus(codes.Error, "invalid config")
		return Result{Allowed: true}, err
	}

	now := r.now().Unix()
	periodSeconds := int64(config.Period / time.Second)
	if periodSeconds < 1 {
		periodSeconds = 1
	}
	windowEnd := now - (now % periodSeconds) + periodSeconds
	resetAfter := time.Duration(windowEnd-now) * time.Second
	key := fmt.Sprintf("lending:ratelimit:%s:%d", config.Key, windowEnd)

	count, err := windowScript.Run(ctx, r.client, []string{key}, windowEnd).Int()
	if err != nil {
		r.logger.Error("erro ao executar script de rate limit", zap.Error(err))
		span.SetStatus(codes.Error, "redis script error")
		span.SetAttributes(attribute.String("error.message", err.Error()))
		if errors.Is(err, context.Canceled) {
			return Result{Allowed: false}, err
		}
		// Redis fora do ar não derruba o login
		return Result{Allowed: true, Limit: config.Limit, Remaining: config.Limit, ResetAfter: resetAfter}, err
	}

	remaining := config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	allowed := count <= config.Limit

	span.SetAttributes(
		attribute.Int("ratelimit.count", count),
		attribute.Bool("ratelimit.allowed", allowed),
	)
	if allowed {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, "rate limit exceeded")
	}

	return Result{Allowed: allowed, Limit: config.Limit, Remaining: remaining, ResetAfter: resetAfter}, nil
}
