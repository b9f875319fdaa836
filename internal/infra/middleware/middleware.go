package middleware

import (
	"time"

	"github.com/diillson/equipment-lending/internal/infra/metrics"
	"github.com/diillson/equipment-lending/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configura o conjunto de middlewares
type Options struct {
	ServiceName   string
	AllowedOrigin string
	Limiter       ratelimit.Limiter // nil desliga o rate limit
	Metrics       *metrics.Metrics  // nil desliga as métricas HTTP
}

// Middleware contém todos os middlewares da aplicação
type Middleware struct {
	logger              *zap.Logger
	authMiddleware      *AuthMiddleware
	recoveryMiddleware  *RecoveryMiddleware
	securityMiddleware  *SecurityMiddleware
	tracingMiddleware   *TracingMiddleware
	metricsMiddleware   *MetricsMiddleware
	rateLimitMiddleware *RateLimitMiddleware
}

// NewMiddleware cria um novo conjunto de middlewares
func NewMiddleware(logger *zap.Logger, validator TokenValidator, opts Options) *Middleware {
	m := &Middleware{
		logger:             logger,
		authMiddleware:     NewAuthMiddleware(validator, logger),
		recoveryMiddleware: NewRecoveryMiddleware(logger),
		securityMiddleware: NewSecurityMiddleware(opts.AllowedOrigin),
		tracingMiddleware:  NewTracingMiddleware(opts.ServiceName),
	}
	if opts.Metrics != nil {
		m.metricsMiddleware = NewMetricsMiddleware(opts.Metrics)
	}
	if opts.Limiter != nil {
		m.rateLimitMiddleware = NewRateLimitMiddleware(opts.Limiter, opts.Metrics, logger)
	}
	return m
}

// Metrics retorna o middleware de métricas
func (m *Middleware) Metrics() gin.HandlerFunc {
	if m.metricsMiddleware != nil {
		return m.metricsMiddleware.Middleware()
	}
	return passThrough
}

// Authenticate middleware para autenticação de usuários
func (m *Middleware) Authenticate(c *gin.Context) {
	m.authMiddleware.Authenticate(c)
}

// Recovery middleware para recuperação de pânicos
func (m *Middleware) Recovery() gin.HandlerFunc {
	return m.recoveryMiddleware.Recovery()
}

// RateLimit limita requisições por IP no escopo informado
func (m *Middleware) RateLimit(scope string, limit int, period time.Duration, burst int) gin.HandlerFunc {
	if m.rateLimitMiddleware == nil {
		return passThrough
	}
	return m.rateLimitMiddleware.IPRateLimit(scope, limit, period, burst)
}

// Logger middleware para logging de requisições
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("path", path),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if actor, ok := ActorFrom(c); ok {
			fields = append(fields, zap.String("user_id", actor.ID), zap.String("role", string(actor.Role)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= 500 {
			m.logger.Error("request completed", fields...)
			return
		}
		m.logger.Info("request completed", fields...)
	}
}

// SecurityHeaders middleware para adicionar cabeçalhos de segurança
func (m *Middleware) SecurityHeaders() gin.HandlerFunc {
	return m.securityMiddleware.Headers()
}

// CORS middleware para configurar CORS
func (m *Middleware) CORS() gin.HandlerFunc {
	return m.securityMiddleware.CORS()
}

// Tracing retorna o middleware de tracing
func (m *Middleware) Tracing() gin.HandlerFunc {
	return m.tracingMiddleware.Middleware()
}

func passThrough(c *gin.Context) {
	c.Next()
}
