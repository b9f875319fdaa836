package middleware

import (
	"time"

	"github.com/diillson/equipment-lending/internal/infra/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware coleta métricas HTTP de cada requisição
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware cria um novo middleware de métricas
func NewMetricsMiddleware(metrics *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Middleware registra métricas para cada requisição
func (m *MetricsMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// rota registrada, não a URL, para não explodir a cardinalidade com ids
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		m.metrics.RequestStarted(path, method)

		var requestSize int
		if c.Request.ContentLength > 0 {
			requestSize = int(c.Request.ContentLength)
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		responseSize := c.Writer.Size()
		if responseSize < 0 {
			responseSize = 0
		}

		m.metrics.RequestCompleted(path, method, status, duration, requestSize, responseSize)

		if status >= 400 {
			errorType := "client_error"
			if status >= 500 {
				errorType = "server_error"
			}
			m.metrics.RequestError(path, method, errorType)
		}
	}
}
