package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SecurityMiddleware adiciona cabeçalhos de segurança e CORS
type SecurityMiddleware struct {
	allowedOrigin string
}

// NewSecurityMiddleware cria o middleware. allowedOrigin vazio vale "*".
func NewSecurityMiddleware(allowedOrigin string) *SecurityMiddleware {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &SecurityMiddleware{allowedOrigin: allowedOrigin}
}

// Headers adiciona cabeçalhos de segurança
func (m *SecurityMiddleware) Headers() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		// respostas com dados de alunos e multas não vão para caches intermediários
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// CORS configura Cross-Origin Resource Sharing
func (m *SecurityMiddleware) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", m.allowedOrigin)
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Expose-Headers", "Location, Retry-After, X-RateLimit-Remaining")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
