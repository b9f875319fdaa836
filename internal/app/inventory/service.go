// Package inventory mantém o cadastro de equipamentos.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diillson/equipment-lending/internal/app/access"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"github.com/diillson/equipment-lending/internal/ids"
	"github.com/diillson/equipment-lending/pkg/cache"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/diillson/equipment-lending/pkg/logging"
	"go.uber.org/zap"
)

const (
	listAllKey       = "equipment:all"
	listAvailableKey = "equipment:available"
)

// EquipmentInput são os campos editáveis de um equipamento. O status nunca é editável.
type EquipmentInput struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Condition     string   `json:"condition"`
	DailyFineRate *float64 `json:"daily_fine_rate"`
}

func (in *EquipmentInput) normalize() error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Condition = strings.TrimSpace(in.Condition)

	switch {
	case in.Code == "":
		return fmt.Errorf("código é obrigatório: %w", apperrors.ErrInvalidInput)
	case in.Name == "":
		return fmt.Errorf("nome é obrigatório: %w", apperrors.ErrInvalidInput)
	case in.DailyFineRate != nil && *in.DailyFineRate < 0:
		return fmt.Errorf("taxa diária não pode ser negativa: %w", apperrors.ErrInvalidInput)
	}
	return nil
}

// Service gerencia equipamentos com as listagens em cache
type Service struct {
	store    repository.Store
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *logging.ContextLogger
}

// NewService cria o serviço de inventário
func NewService(store repository.Store, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logging.NewContextLogger(logger),
	}
}

// Create cadastra um equipamento disponível
func (s *Service) Create(ctx context.Context, actor model.Actor, input EquipmentInput) (*model.Equipment, error) {
	if err := access.Authorize(access.ManageEquipment, actor, ""); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	entity := &model.EquipmentEntity{
		ID:            ids.NewID(),
		Code:          input.Code,
		Name:          input.Name,
		Status:        string(model.EquipmentAvailable),
		Condition:     input.Condition,
		DailyFineRate: input.DailyFineRate,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		taken, err := tx.Equipment().CodeTaken(ctx, input.Code, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("o código %q já está em uso: %w", input.Code, apperrors.ErrConflict)
		}
		return tx.Equipment().Create(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateListings(ctx)
	s.logger.Info("Equipamento cadastrado", zap.String("id", entity.ID), zap.String("code", entity.Code))
	return entity.ToModel(), nil
}

// Update altera os dados cadastrais do equipamento
func (s *Service) Update(ctx context.Context, actor model.Actor, id string, input EquipmentInput) (*model.Equipment, error) {
	if err := access.Authorize(access.ManageEquipment, actor, ""); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	var entity *model.EquipmentEntity
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		var err error
		entity, err = tx.Equipment().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		taken, err := tx.Equipment().CodeTaken(ctx, input.Code, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("o código %q já está em uso: %w", input.Code, apperrors.ErrConflict)
		}

		entity.Code = input.Code
		entity.Name = input.Name
		entity.Condition = input.Condition
		entity.DailyFineRate = input.DailyFineRate
		return tx.Equipment().Update(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateListings(ctx)
	return entity.ToModel(), nil
}

// Delete remove o equipamento. Equipamento emprestado não pode ser removido.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := access.Authorize(access.ManageEquipment, actor, ""); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		entity, err := tx.Equipment().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		active, err := tx.Loans().CountActiveByEquipment(ctx, id)
		if err != nil {
			return err
		}
		if model.EquipmentStatus(entity.Status) == model.EquipmentLoaned || active > 0 {
			return fmt.Errorf("equipamento %s está emprestado: %w", entity.Code, apperrors.ErrConflict)
		}

		return tx.Equipment().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.InvalidateListings(ctx)
	s.logger.Info("Equipamento removido", zap.String("id", id))
	return nil
}

// Get busca um equipamento
func (s *Service) Get(ctx context.Context, actor model.Actor, id string) (*model.Equipment, error) {
	if err := access.Authorize(access.ViewEquipment, actor, ""); err != nil {
		return nil, err
	}

	entity, err := s.store.Equipment().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return entity.ToModel(), nil
}

// List lista todo o inventário
func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.Equipment, error) {
	if err := access.Authorize(access.ViewEquipment, actor, ""); err != nil {
		return nil, err
	}

	return s.cached(ctx, listAllKey, func() ([]*model.EquipmentEntity, error) {
		return s.store.Equipment().List(ctx)
	})
}

// ListAvailable lista os equipamentos que podem ser emprestados agora
func (s *Service) ListAvailable(ctx context.Context, actor model.Actor) ([]*model.Equipment, error) {
	if err := access.Authorize(access.ViewAvailableEquipment, actor, ""); err != nil {
		return nil, err
	}

	return s.cached(ctx, listAvailableKey, func() ([]*model.EquipmentEntity, error) {
		return s.store.Equipment().ListByStatus(ctx, model.EquipmentAvailable)
	})
}

// InvalidateListings descarta as listagens em cache
func (s *Service) InvalidateListings(ctx context.Context) {
	for _, key := range []string{listAllKey, listAvailableKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.WarnCtx(ctx, "Erro ao invalidar cache de equipamentos", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *Service) cached(ctx context.Context, key string, load func() ([]*model.EquipmentEntity, error)) ([]*model.Equipment, error) {
	var items []*model.Equipment

	found, err := s.cache.Get(ctx, key, &items)
	if err != nil {
		// falha no cache não impede a leitura do banco
		s.logger.WarnCtx(ctx, "Erro ao buscar equipamentos do cache", zap.String("key", key), zap.Error(err))
	} else if found {
		return items, nil
	}

	entities, err := load()
	if err != nil {
		return nil, err
	}

	items = make([]*model.Equipment, 0, len(entities))
	for _, entity := range entities {
		items = append(items, entity.ToModel())
	}

	if err := s.cache.Set(ctx, key, items, s.cacheTTL); err != nil {
		s.logger.WarnCtx(ctx, "Erro ao armazenar equipamentos no cache", zap.String("key", key), zap.Error(err))
	}

	return items, nil
}
