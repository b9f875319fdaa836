package http

import (
	"context"
	"net/http"

	"github.com/diillson/equipment-lending/internal/app/identity"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentityService é o cadastro de usuários usado pelos handlers
type IdentityService interface {
	CreateStudent(ctx context.Context, actor model.Actor, input identity.UserInput) (*model.User, error)
	CreateUser(ctx context.Context, actor model.Actor, input identity.UserInput) (*model.User, error)
	UpdateStudent(ctx context.Context, actor model.Actor, id string, input identity.StudentUpdate) (*model.User, error)
	DeleteStudent(ctx context.Context, actor model.Actor, id string) error
	ListStudents(ctx context.Context, actor model.Actor) ([]*model.User, error)
	GetStudent(ctx context.Context, actor model.Actor, id string) (*model.User, error)
}

// StudentHandler expõe o cadastro de alunos e de contas administrativas
type StudentHandler struct {
	service IdentityService
	logger  *zap.Logger
}

// NewStudentHandler cria o handler de alunos
func NewStudentHandler(service IdentityService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{service: service, logger: logger}
}

func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.service.ListStudents(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.GetStudent(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) Create(c *gin.Context) {
	var input identity.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	student, err := h.service.CreateStudent(c.Request.Context(), actorOf(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Location", "/students/"+student.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Aluno cadastrado", "student": student})
}

// Update altera os dados do aluno; a senha só muda quando informada
func (h *StudentHandler) Update(c *gin.Context) {
	var input identity.StudentUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	student, err := h.service.UpdateStudent(c.Request.Context(), actorOf(c), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Aluno atualizado", "student": student})
}

// Delete remove o aluno e todos os seus empréstimos
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteStudent(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Aluno e todos os seus empréstimos removidos"})
}

// CreateUser cria contas admin ou consulta
func (h *StudentHandler) CreateUser(c *gin.Context) {
	var input identity.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), actorOf(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Usuário criado", "user": user})
}
