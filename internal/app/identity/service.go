// Package identity mantém alunos e demais usuários do sistema.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diillson/equipment-lending/internal/app/access"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"github.com/diillson/equipment-lending/internal/ids"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials é devolvido quando usuário ou senha não conferem
var ErrInvalidCredentials = fmt.Errorf("credenciais inválidas: %w", apperrors.ErrUnauthorized)

// UserInput são os dados de criação de um usuário
type UserInput struct {
	Username    string     `json:"username"`
	Password    string     `json:"password"`
	DisplayName string     `json:"display_name"`
	Role        model.Role `json:"role"`
	Code        string     `json:"code"`
}

// StudentUpdate são os dados editáveis de um aluno. Password vazio mantém a senha atual.
type StudentUpdate struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Code        string `json:"code"`
}

// ListingInvalidator descarta listagens de equipamentos em cache
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

// Options ajusta a política de senhas
type Options struct {
	PasswordMinLen int
	BcryptCost     int
}

// Service gerencia o cadastro de usuários
type Service struct {
	store    repository.Store
	opts     Options
	logger   *zap.Logger
	listings ListingInvalidator
}

// NewService cria o serviço de identidade. listings pode ser nil.
func NewService(store repository.Store, opts Options, listings ListingInvalidator, logger *zap.Logger) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:    store,
		opts:     opts,
		logger:   logger,
		listings: listings,
	}
}

// CreateStudent cadastra um aluno. O código institucional é obrigatório.
func (s *Service) CreateStudent(ctx context.Context, actor model.Actor, input UserInput) (*model.User, error) {
	if err := access.Authorize(access.ManageStudents, actor, ""); err != nil {
		return nil, err
	}
	input.Role = model.RoleStudent
	return s.create(ctx, input)
}

// CreateUser cadastra um usuário de qualquer papel
func (s *Service) CreateUser(ctx context.Context, actor model.Actor, input UserInput) (*model.User, error) {
	if err := access.Authorize(access.ManageUsers, actor, ""); err != nil {
		return nil, err
	}
	return s.create(ctx, input)
}

func (s *Service) create(ctx context.Context, input UserInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Code = strings.TrimSpace(input.Code)

	if !input.Role.Valid() {
		return nil, fmt.Errorf("papel %q desconhecido: %w", input.Role, apperrors.ErrInvalidInput)
	}
	if err := s.validate(input.Username, input.DisplayName, input.Code, input.Role); err != nil {
		return nil, err
	}
	if err := s.validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	entity := &model.UserEntity{
		ID:           ids.NewID(),
		Username:     input.Username,
		PasswordHash: hash,
		Role:         string(input.Role),
		DisplayName:  input.DisplayName,
	}
	if input.Code != "" {
		code := input.Code
		entity.Code = &code
	}

	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := checkUnique(ctx, tx.Users(), entity.Username, input.Code, ""); err != nil {
			return err
		}
		return tx.Users().Create(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Usuário criado",
		zap.String("id", entity.ID),
		zap.String("username", entity.Username),
		zap.String("role", entity.Role))
	return entity.ToModel(), nil
}

// UpdateStudent altera os dados do aluno e, se informada, a senha
func (s *Service) UpdateStudent(ctx context.Context, actor model.Actor, id string, input StudentUpdate) (*model.User, error) {
	if err := access.Authorize(access.ManageStudents, actor, ""); err != nil {
		return nil, err
	}

	input.Username = strings.TrimSpace(input.Username)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Code = strings.TrimSpace(input.Code)

	if err := s.validate(input.Username, input.DisplayName, input.Code, model.RoleStudent); err != nil {
		return nil, err
	}

	var hash string
	if input.Password != "" {
		if err := s.validatePassword(input.Password); err != nil {
			return nil, err
		}
		var err error
		if hash, err = s.hash(input.Password); err != nil {
			return nil, err
		}
	}

	var entity *model.UserEntity
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		var err error
		entity, err = getStudent(ctx, tx.Users(), id)
		if err != nil {
			return err
		}
		if err := checkUnique(ctx, tx.Users(), input.Username, input.Code, id); err != nil {
			return err
		}

		code := input.Code
		entity.Username = input.Username
		entity.DisplayName = input.DisplayName
		entity.Code = &code
		if hash != "" {
			entity.PasswordHash = hash
		}
		return tx.Users().Update(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Aluno atualizado", zap.String("id", id), zap.Bool("password_reset", hash != ""))
	return entity.ToModel(), nil
}

// DeleteStudent remove o aluno e o histórico dele. Equipamentos com
// empréstimo ativo voltam a ficar disponíveis na mesma transação.
func (s *Service) DeleteStudent(ctx context.Context, actor model.Actor, id string) error {
	if err := access.Authorize(access.ManageStudents, actor, ""); err != nil {
		return err
	}

	released := 0
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if _, err := getStudent(ctx, tx.Users(), id); err != nil {
			return err
		}

		active, err := tx.Loans().List(ctx, repository.LoanFilter{StudentID: id, State: model.LoanActive})
		if err != nil {
			return err
		}
		for _, l := range active {
			changed, err := tx.Equipment().TransitionStatus(ctx, l.EquipmentID, model.EquipmentLoaned, model.EquipmentAvailable)
			if err != nil {
				return err
			}
			if !changed {
				return fmt.Errorf("equipamento %s do empréstimo %s não estava emprestado", l.EquipmentID, l.ID)
			}
			released++
		}

		if err := tx.Loans().DeleteByStudent(ctx, id); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if released > 0 && s.listings != nil {
		s.listings.InvalidateListings(ctx)
	}
	s.logger.Info("Aluno removido", zap.String("id", id), zap.Int("equipment_released", released))
	return nil
}

// ListStudents lista os alunos
func (s *Service) ListStudents(ctx context.Context, actor model.Actor) ([]*model.User, error) {
	if err := access.Authorize(access.ViewStudents, actor, ""); err != nil {
		return nil, err
	}

	entities, err := s.store.Users().ListByRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(entities))
	for _, entity := range entities {
		users = append(users, entity.ToModel())
	}
	return users, nil
}

// GetStudent busca um aluno
func (s *Service) GetStudent(ctx context.Context, actor model.Actor, id string) (*model.User, error) {
	if err := access.Authorize(access.ViewStudents, actor, ""); err != nil {
		return nil, err
	}

	entity, err := getStudent(ctx, s.store.Users(), id)
	if err != nil {
		return nil, err
	}
	return entity.ToModel(), nil
}

// GetUser busca qualquer usuário pelo id, sem verificação de acesso. Usado pela autenticação.
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	entity, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return entity.ToModel(), nil
}

// VerifyCredentials confere usuário e senha
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	entity, err := s.store.Users().GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return entity.ToModel(), nil
}

// EnsureAdmin cria o administrador se o username ainda não existir. Devolve true quando criou.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, displayName string) (bool, error) {
	existing, err := s.store.Users().GetByUsername(ctx, username)
	if err == nil {
		if model.Role(existing.Role) != model.RoleAdmin {
			s.logger.Warn("Usuário do administrador inicial já existe com outro papel",
				zap.String("username", username),
				zap.String("role", existing.Role))
		}
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}

	if displayName == "" {
		displayName = "Administrador"
	}
	if _, err := s.create(ctx, UserInput{
		Username:    username,
		Password:    password,
		DisplayName: displayName,
		Role:        model.RoleAdmin,
	}); err != nil {
		// outra instância pode ter criado o mesmo admin ao mesmo tempo
		if errors.Is(err, apperrors.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) validate(username, displayName, code string, role model.Role) error {
	switch {
	case username == "":
		return fmt.Errorf("nome de usuário é obrigatório: %w", apperrors.ErrInvalidInput)
	case displayName == "":
		return fmt.Errorf("nome é obrigatório: %w", apperrors.ErrInvalidInput)
	case role == model.RoleStudent && code == "":
		return fmt.Errorf("código é obrigatório para alunos: %w", apperrors.ErrInvalidInput)
	}
	return nil
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.opts.PasswordMinLen || password == "" {
		return fmt.Errorf("a senha deve ter pelo menos %d caracteres: %w", s.opts.PasswordMinLen, apperrors.ErrInvalidInput)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("falha ao gerar hash da senha: %w", err)
	}
	return string(hash), nil
}

// checkUnique devolve Conflict com mensagens distintas para username e código
func checkUnique(ctx context.Context, users repository.UserRepository, username, code, exceptID string) error {
	taken, err := users.UsernameTaken(ctx, username, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("o nome de usuário %q já existe: %w", username, apperrors.ErrConflict)
	}

	if code == "" {
		return nil
	}
	taken, err = users.CodeTaken(ctx, code, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("o código %q já está cadastrado: %w", code, apperrors.ErrConflict)
	}
	return nil
}

// getStudent trata usuários de outros papéis como inexistentes
func getStudent(ctx context.Context, users repository.UserRepository, id string) (*model.UserEntity, error) {
	entity, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if model.Role(entity.Role) != model.RoleStudent {
		return nil, fmt.Errorf("aluno %s: %w", id, apperrors.ErrNotFound)
	}
	return entity, nil
}
