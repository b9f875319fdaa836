package http

import (
	"net/http"

	"github.com/diillson/equipment-lending/internal/app/access"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/infra/middleware"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError escreve o erro de domínio como resposta JSON.
// Acesso negado vira um redirecionamento para a página inicial do papel.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if apperrors.Is(err, apperrors.ErrForbidden) {
		redirect := access.LandingPath(actorOf(c).Role)
		c.Header("Location", redirect)
		c.AbortWithStatusJSON(http.StatusSeeOther, gin.H{
			"error":    "Acesso negado",
			"redirect": redirect,
		})
		return
	}

	apiErr := apperrors.FromError(err)
	if apiErr.Code >= http.StatusInternalServerError {
		logger.Error("erro ao processar requisição",
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err))
	}

	body := gin.H{"error": apiErr.Message, "kind": apiErr.Kind}
	if apiErr.Details != nil {
		body["details"] = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Code, body)
}

// bindError responde 400 para um corpo JSON inválido
func bindError(c *gin.Context, err error) {
	apiErr := apperrors.BadRequest("Dados inválidos", err).WithDetails(err.Error())
	c.AbortWithStatusJSON(apiErr.Code, gin.H{
		"error":   apiErr.Message,
		"kind":    apiErr.Kind,
		"details": apiErr.Details,
	})
}

func actorOf(c *gin.Context) model.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}
