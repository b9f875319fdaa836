package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diillson/equipment-lending/internal/infra/metrics"
	"github.com/diillson/equipment-lending/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware limita requisições por IP com o limitador configurado
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRateLimitMiddleware cria um novo middleware de rate limiting. metrics pode ser nil.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, metrics *metrics.Metrics, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
	}
}

// IPRateLimit limita as requisições de cada IP ao escopo informado (ex.: "login")
func (m *RateLimitMiddleware) IPRateLimit(scope string, limit int, period time.Duration, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		result, err := m.limiter.Allow(c.Request.Context(), ratelimit.LimitConfig{
			Key:    scope + ":" + clientIP,
			Limit:  limit,
			Period: period,
			Burst:  burst,
		})
		if err != nil {
			// Em caso de erro, permite a requisição
			m.logger.Error("erro ao verificar rate limit", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := int(result.ResetAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			if m.metrics != nil {
				m.metrics.RateLimitExceeded(c.FullPath(), c.Request.Method, scope)
			}
			m.logger.Warn("Limite de requisições excedido",
				zap.String("scope", scope),
				zap.String("ip", clientIP))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Muitas tentativas, tente novamente mais tarde",
				"kind":        "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
