package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/diillson/equipment-lending/internal/app/loan"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoanService é o ciclo de empréstimos usado pelos handlers
type LoanService interface {
	Create(ctx context.Context, actor model.Actor, equipmentID string, expectedReturnAt *time.Time) (*model.Loan, error)
	PreviewReturn(ctx context.Context, actor model.Actor, loanID string) (*loan.ReturnPreview, error)
	Return(ctx context.Context, actor model.Actor, loanID string) (*model.Loan, error)
	ListActive(ctx context.Context, actor model.Actor) ([]*model.Loan, error)
	ListHistory(ctx context.Context, actor model.Actor) ([]*model.Loan, error)
}

// LoanHandler expõe empréstimos e devoluções
type LoanHandler struct {
	service LoanService
	logger  *zap.Logger
}

// NewLoanHandler cria o handler de empréstimos
func NewLoanHandler(service LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{service: service, logger: logger}
}

// CreateLoanRequest é o corpo de POST /loans
type CreateLoanRequest struct {
	EquipmentID      string     `json:"equipment_id" binding:"required"`
	ExpectedReturnAt *time.Time `json:"expected_return_at"`
}

// ListActive lista os empréstimos ativos visíveis ao ator
func (h *LoanHandler) ListActive(c *gin.Context) {
	loans, err := h.service.ListActive(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

// ListHistory lista as devoluções visíveis ao ator
func (h *LoanHandler) ListHistory(c *gin.Context) {
	loans, err := h.service.ListHistory(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) Create(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), actorOf(c), req.EquipmentID, req.ExpectedReturnAt)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Empréstimo registrado", "loan": created})
}

// PreviewReturn mostra atraso e multa que a devolução aplicaria agora
func (h *LoanHandler) PreviewReturn(c *gin.Context) {
	preview, err := h.service.PreviewReturn(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Return confirma a devolução
func (h *LoanHandler) Return(c *gin.Context) {
	returned, err := h.service.Return(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": returnMessage(returned), "loan": returned})
}

func returnMessage(l *model.Loan) string {
	if l.FineAmount > 0 {
		return fmt.Sprintf("Devolução registrada. Multa aplicada: R$ %.2f (%d dia(s) de atraso)", l.FineAmount, l.LateDays)
	}
	return "Devolução registrada"
}
