package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diillson/equipment-lending/internal/domain/model"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userKey  = "user"
	actorKey = "actor"
)

// TokenValidator resolve um token de sessão no usuário atual
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware autentica as requisições pelo header Authorization
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware cria uma nova instância do middleware de autenticação
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Authenticate exige um bearer token válido e guarda o ator no contexto
func (m *AuthMiddleware) Authenticate(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "Authorization header não fornecido")
		return
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		abortUnauthorized(c, "Formato inválido do token")
		return
	}

	user, err := m.validator.ValidateToken(c.Request.Context(), tokenString)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			abortUnauthorized(c, "Token inválido ou expirado")
			return
		}
		m.logger.Error("Falha ao validar sessão", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erro interno do servidor", "kind": "internal"})
		return
	}

	SetUser(c, user)
	c.Next()
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="equipment-lending"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "kind": "unauthorized"})
}

// SetUser guarda o usuário autenticado e o ator derivado dele
func SetUser(c *gin.Context, user *model.User) {
	c.Set(userKey, user)
	c.Set(actorKey, user.Actor())
}

// CurrentUser devolve o usuário autenticado
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}

// ActorFrom devolve o ator da requisição
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := value.(model.Actor)
	return actor, ok
}
