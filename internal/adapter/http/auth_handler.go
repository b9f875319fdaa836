package http

import (
	"context"
	"net/http"

	"github.com/diillson/equipment-lending/internal/app/access"
	"github.com/diillson/equipment-lending/internal/app/auth"
	"github.com/diillson/equipment-lending/internal/infra/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator emite tokens de sessão
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// AuthHandler expõe o login
type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthHandler cria o handler de autenticação
func NewAuthHandler(auth Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// LoginRequest é o corpo de POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login troca credenciais por um token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Info("login recusado", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Usuário ou senha incorretos",
			"kind":  "unauthorized",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
		"redirect":   access.LandingPath(result.User.Role),
	})
}

// Me devolve o usuário da sessão atual
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Autenticação necessária", "kind": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}
