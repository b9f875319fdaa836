// Package loan implementa o ciclo de vida dos empréstimos: criação,
// prévia de devolução, devolução e listagens por papel.
package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/diillson/equipment-lending/internal/app/access"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"github.com/diillson/equipment-lending/internal/ids"
	"github.com/diillson/equipment-lending/pkg/clock"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/diillson/equipment-lending/pkg/logging"
	"go.uber.org/zap"
)

// Recorder recebe os eventos do ciclo de empréstimo para métricas
type Recorder interface {
	LoanCreated()
	LoanReturned(lateDays int, fine float64)
	OperationFailed(operation, kind string)
}

// ListingInvalidator descarta listagens de equipamentos em cache após mudança de status
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

// ReturnPreview mostra o que a devolução faria se confirmada agora
type ReturnPreview struct {
	Loan      *model.Loan      `json:"loan"`
	Equipment *model.Equipment `json:"equipment"`
	At        time.Time        `json:"at"`
	Overdue   bool             `json:"overdue"`
	LateDays  int              `json:"late_days"`
	Fine      float64          `json:"fine"`
}

// Service coordena os empréstimos sobre o Store transacional
type Service struct {
	store       repository.Store
	clock       clock.Clock
	defaultRate float64
	logger      *logging.ContextLogger
	recorder    Recorder
	listings    ListingInvalidator
}

// Option ajusta dependências opcionais do serviço
type Option func(*Service)

// WithRecorder liga o serviço às métricas
func WithRecorder(recorder Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithListingInvalidator liga o serviço ao cache de listagens de equipamentos
func WithListingInvalidator(listings ListingInvalidator) Option {
	return func(s *Service) { s.listings = listings }
}

// NewService cria o serviço de empréstimos. defaultRate vale para equipamentos sem taxa própria.
func NewService(store repository.Store, clk clock.Clock, defaultRate float64, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		clock:       clk,
		defaultRate: defaultRate,
		logger:      logging.NewContextLogger(logger),
		recorder:    nopRecorder{},
		listings:    nopInvalidator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create empresta o equipamento ao aluno autenticado
func (s *Service) Create(ctx context.Context, actor model.Actor, equipmentID string, expectedReturnAt *time.Time) (*model.Loan, error) {
	if err := access.Authorize(access.CreateLoan, actor, actor.ID); err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	now := s.clock.Now()
	if expectedReturnAt != nil {
		if expectedReturnAt.Before(now) {
			return nil, s.fail(ctx, "create", fmt.Errorf("data prevista de devolução no passado: %w", apperrors.ErrInvalidInput))
		}
		utc := expectedReturnAt.UTC()
		expectedReturnAt = &utc
	}

	var entity *model.LoanEntity
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		equipment, err := tx.Equipment().GetByIDForUpdate(ctx, equipmentID)
		if err != nil {
			return err
		}
		if model.EquipmentStatus(equipment.Status) != model.EquipmentAvailable {
			return fmt.Errorf("equipamento %s: %w", equipment.Code, apperrors.ErrNotAvailable)
		}

		changed, err := tx.Equipment().TransitionStatus(ctx, equipment.ID, model.EquipmentAvailable, model.EquipmentLoaned)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("equipamento %s: %w", equipment.Code, apperrors.ErrNotAvailable)
		}

		entity = &model.LoanEntity{
			ID:               ids.NewLoanID(now),
			EquipmentID:      equipment.ID,
			StudentID:        actor.ID,
			CreatedAt:        now,
			ExpectedReturnAt: expectedReturnAt,
			State:            string(model.LoanActive),
		}
		return tx.Loans().Create(ctx, entity)
	})
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	s.listings.InvalidateListings(ctx)
	s.recorder.LoanCreated()
	s.logger.InfoCtx(ctx, "Empréstimo criado",
		zap.String("loan_id", entity.ID),
		zap.String("equipment_id", entity.EquipmentID),
		zap.String("student_id", entity.StudentID),
	)

	return entity.ToModel(), nil
}

// PreviewReturn calcula atraso e multa de uma devolução feita agora, sem gravar nada
func (s *Service) PreviewReturn(ctx context.Context, actor model.Actor, loanID string) (*ReturnPreview, error) {
	if access.ScopeFor(access.ReturnLoan, actor.Role) == access.None {
		return nil, s.fail(ctx, "preview_return", access.Authorize(access.ReturnLoan, actor, ""))
	}

	now := s.clock.Now()

	entity, err := s.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, s.fail(ctx, "preview_return", err)
	}
	if err := access.Authorize(access.ReturnLoan, actor, entity.StudentID); err != nil {
		return nil, s.fail(ctx, "preview_return", err)
	}
	if model.LoanState(entity.State) != model.LoanActive {
		return nil, s.fail(ctx, "preview_return", fmt.Errorf("empréstimo %s já devolvido: %w", entity.ID, apperrors.ErrInvalidState))
	}

	equipment, err := s.store.Equipment().GetByID(ctx, entity.EquipmentID)
	if err != nil {
		return nil, s.fail(ctx, "preview_return", err)
	}

	lateDays := LateDays(entity.ExpectedReturnAt, now)
	return &ReturnPreview{
		Loan:      entity.ToModel(),
		Equipment: equipment.ToModel(),
		At:        now,
		Overdue:   Overdue(entity.ExpectedReturnAt, now),
		LateDays:  lateDays,
		Fine:      Fine(lateDays, equipment.DailyFineRate, s.defaultRate),
	}, nil
}

// Return encerra o empréstimo, grava atraso e multa e libera o equipamento
func (s *Service) Return(ctx context.Context, actor model.Actor, loanID string) (*model.Loan, error) {
	if access.ScopeFor(access.ReturnLoan, actor.Role) == access.None {
		return nil, s.fail(ctx, "return", access.Authorize(access.ReturnLoan, actor, ""))
	}

	now := s.clock.Now()

	var entity *model.LoanEntity
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		var err error
		entity, err = tx.Loans().GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := access.Authorize(access.ReturnLoan, actor, entity.StudentID); err != nil {
			return err
		}
		if model.LoanState(entity.State) != model.LoanActive {
			return fmt.Errorf("empréstimo %s já devolvido: %w", entity.ID, apperrors.ErrInvalidState)
		}

		equipment, err := tx.Equipment().GetByIDForUpdate(ctx, entity.EquipmentID)
		if err != nil {
			return err
		}

		entity.LateDays = LateDays(entity.ExpectedReturnAt, now)
		entity.FineAmount = Fine(entity.LateDays, equipment.DailyFineRate, s.defaultRate)
		entity.ReturnedAt = &now
		entity.State = string(model.LoanReturned)

		closed, err := tx.Loans().MarkReturned(ctx, entity)
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("empréstimo %s já devolvido: %w", entity.ID, apperrors.ErrInvalidState)
		}

		released, err := tx.Equipment().TransitionStatus(ctx, equipment.ID, model.EquipmentLoaned, model.EquipmentAvailable)
		if err != nil {
			return err
		}
		if !released {
			return fmt.Errorf("equipamento %s não estava emprestado", equipment.Code)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "return", err)
	}

	s.listings.InvalidateListings(ctx)
	s.recorder.LoanReturned(entity.LateDays, entity.FineAmount)
	s.logger.InfoCtx(ctx, "Empréstimo devolvido",
		zap.String("loan_id", entity.ID),
		zap.String("equipment_id", entity.EquipmentID),
		zap.Int("late_days", entity.LateDays),
		zap.Float64("fine", entity.FineAmount),
	)

	return entity.ToModel(), nil
}

// ListActive lista os empréstimos ativos visíveis ao ator
func (s *Service) ListActive(ctx context.Context, actor model.Actor) ([]*model.Loan, error) {
	return s.list(ctx, "list_active", access.ViewActiveLoans, actor, model.LoanActive)
}

// ListHistory lista todos os empréstimos visíveis ao ator, ativos ou devolvidos
func (s *Service) ListHistory(ctx context.Context, actor model.Actor) ([]*model.Loan, error) {
	return s.list(ctx, "list_history", access.ViewLoanHistory, actor, "")
}

func (s *Service) list(ctx context.Context, operation string, op access.Operation, actor model.Actor, state model.LoanState) ([]*model.Loan, error) {
	if err := access.Authorize(op, actor, ""); err != nil {
		return nil, s.fail(ctx, operation, err)
	}

	filter := repository.LoanFilter{State: state}
	if access.ScopeFor(op, actor.Role) == access.Own {
		filter.StudentID = actor.ID
	}

	entities, err := s.store.Loans().List(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, operation, err)
	}

	loans := make([]*model.Loan, 0, len(entities))
	for _, entity := range entities {
		loans = append(loans, entity.ToModel())
	}
	return loans, nil
}

// fail registra a falha e devolve o erro sem alterá-lo
func (s *Service) fail(ctx context.Context, operation string, err error) error {
	kind := apperrors.Kind(err)
	s.recorder.OperationFailed(operation, kind)
	if kind == "internal" {
		s.logger.ErrorCtx(ctx, "Falha na operação de empréstimo", zap.String("operation", operation), zap.Error(err))
	} else {
		s.logger.DebugCtx(ctx, "Operação de empréstimo recusada", zap.String("operation", operation), zap.String("kind", kind), zap.Error(err))
	}
	return err
}

type nopRecorder struct{}

func (nopRecorder) LoanCreated() {}

func (nopRecorder) LoanReturned(int, float64) {}

func (nopRecorder) OperationFailed(string, string) {}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateListings(context.Context) {}
