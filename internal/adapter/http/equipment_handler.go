package http

import (
	"context"
	"net/http"

	"github.com/diillson/equipment-lending/internal/app/inventory"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EquipmentService é o inventário usado pelos handlers
type EquipmentService interface {
	Create(ctx context.Context, actor model.Actor, input inventory.EquipmentInput) (*model.Equipment, error)
	Update(ctx context.Context, actor model.Actor, id string, input inventory.EquipmentInput) (*model.Equipment, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
	Get(ctx context.Context, actor model.Actor, id string) (*model.Equipment, error)
	List(ctx context.Context, actor model.Actor) ([]*model.Equipment, error)
	ListAvailable(ctx context.Context, actor model.Actor) ([]*model.Equipment, error)
}

// EquipmentHandler expõe o cadastro de equipamentos
type EquipmentHandler struct {
	service EquipmentService
	logger  *zap.Logger
}

// NewEquipmentHandler cria o handler de equipamentos
func NewEquipmentHandler(service EquipmentService, logger *zap.Logger) *EquipmentHandler {
	return &EquipmentHandler{service: service, logger: logger}
}

func (h *EquipmentHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListAvailable lista o que pode ser emprestado agora
func (h *EquipmentHandler) ListAvailable(c *gin.Context) {
	items, err := h.service.ListAvailable(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *EquipmentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *EquipmentHandler) Create(c *gin.Context) {
	var input inventory.EquipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.service.Create(c.Request.Context(), actorOf(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Location", "/equipment/"+item.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Equipamento cadastrado", "equipment": item})
}

func (h *EquipmentHandler) Update(c *gin.Context) {
	var input inventory.EquipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.service.Update(c.Request.Context(), actorOf(c), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Equipamento atualizado", "equipment": item})
}

func (h *EquipmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Equipamento removido"})
}
