package http

import (
	"time"

	"github.com/diillson/equipment-lending/internal/infra/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers agrupa os handlers registrados no router
type Handlers struct {
	Auth      *AuthHandler
	Equipment *EquipmentHandler
	Students  *StudentHandler
	Loans     *LoanHandler
	Health    *HealthChecker
}

// LoginLimit configura o rate limit de POST /auth/login
type LoginLimit struct {
	Limit  int
	Period time.Duration
	Burst  int
}

// RegisterRoutes registra todas as rotas da API
func RegisterRoutes(router gin.IRouter, h Handlers, mw *middleware.Middleware, login LoginLimit) {
	health := router.Group("/health")
	{
		health.GET("", h.Health.DetailedHealth)
		health.GET("/liveness", h.Health.LivenessCheck)
		health.GET("/readiness", h.Health.ReadinessCheck)
	}

	router.POST("/auth/login", mw.RateLimit("login", login.Limit, login.Period, login.Burst), h.Auth.Login)

	authed := router.Group("/")
	authed.Use(mw.Authenticate)
	{
		authed.GET("/auth/me", h.Auth.Me)

		authed.GET("/equipment", h.Equipment.List)
		authed.POST("/equipment", h.Equipment.Create)
		authed.GET("/equipment/available", h.Equipment.ListAvailable)
		authed.GET("/equipment/:id", h.Equipment.Get)
		authed.PUT("/equipment/:id", h.Equipment.Update)
		authed.DELETE("/equipment/:id", h.Equipment.Delete)

		authed.GET("/students", h.Students.List)
		authed.POST("/students", h.Students.Create)
		authed.GET("/students/:id", h.Students.Get)
		authed.PUT("/students/:id", h.Students.Update)
		authed.DELETE("/students/:id", h.Students.Delete)

		authed.POST("/users", h.Students.CreateUser)

		authed.GET("/loans", h.Loans.ListActive)
		authed.POST("/loans", h.Loans.Create)
		authed.GET("/loans/history", h.Loans.ListHistory)
		authed.GET("/loans/:id/return", h.Loans.PreviewReturn)
		authed.POST("/loans/:id/return", h.Loans.Return)
	}
}
