package database

import (
	"context"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EquipmentRepository implementa repository.EquipmentRepository com GORM
type EquipmentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEquipmentRepository cria um repositório de equipamentos ligado ao handle informado
func NewEquipmentRepository(db *gorm.DB, logger *zap.Logger) repository.EquipmentRepository {
	return &EquipmentRepository{db: db, logger: logger}
}

func (r *EquipmentRepository) Create(ctx context.Context, equipment *model.EquipmentEntity) (err error) {
	ctx, span := startSpan(ctx, "EquipmentRepository.Create", "insert", "equipment", attribute.String("equipment.code", equipment.Code))
	defer func() { finishSpan(span, err); span.End() }()

	if err = r.db.WithContext(ctx).Create(equipment).Error; err != nil {
		r.logger.Warn("falha ao criar equipamento", zap.String("code", equipment.Code), zap.Error(err))
		return translate(err, "criar equipamento")
	}
	return nil
}

func (r *EquipmentRepository) Update(ctx context.Context, equipment *model.EquipmentEntity) (err error) {
	ctx, span := startSpan(ctx, "EquipmentRepository.Update", "update", "equipment", attribute.String("equipment.id", equipment.ID))
	defer func() { finishSpan(span, err); span.End() }()

	// O status fica de fora: só o ciclo de empréstimo o altera
	err = r.db.WithContext(ctx).Model(&model.EquipmentEntity{}).
		Where("id = ?", equipment.ID).
		Select("code", "name", "condition", "daily_fine_rate", "updated_at").
		Updates(equipment).Error
	if err != nil {
		r.logger.Warn("falha ao atualizar equipamento", zap.String("id", equipment.ID), zap.Error(err))
		return translate(err, "atualizar equipamento")
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "EquipmentRepository.Delete", "delete", "equipment", attribute.String("equipment.id", id))
	defer func() { finishSpan(span, err); span.End() }()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.EquipmentEntity{})
	if result.Error != nil {
		return translate(result.Error, "excluir equipamento")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "equipamento "+id)
	}
	return nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*model.EquipmentEntity, error) {
	return r.get(ctx, r.db, id)
}

func (r *EquipmentRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.EquipmentEntity, error) {
	return r.get(ctx, forUpdate(r.db), id)
}

func (r *EquipmentRepository) get(ctx context.Context, db *gorm.DB, id string) (_ *model.EquipmentEntity, err error) {
	ctx, span := startSpan(ctx, "EquipmentRepository.GetByID", "select", "equipment", attribute.String("equipment.id", id))
	defer func() { finishSpan(span, err); span.End() }()

	var equipment model.EquipmentEntity
	if err = db.WithContext(ctx).Where("id = ?", id).First(&equipment).Error; err != nil {
		return nil, translate(err, "equipamento "+id)
	}
	return &equipment, nil
}

func (r *EquipmentRepository) CodeTaken(ctx context.Context, code, exceptID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.EquipmentEntity{}).Where("code = ?", code)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translate(err, "verificar código")
	}
	return count > 0, nil
}

func (r *EquipmentRepository) List(ctx context.Context) (_ []*model.EquipmentEntity, err error) {
	ctx, span := startSpan(ctx, "EquipmentRepository.List", "select", "equipment")
	defer func() { finishSpan(span, err); span.End() }()

	var items []*model.EquipmentEntity
	if err = r.db.WithContext(ctx).Order("created_at, id").Find(&items).Error; err != nil {
		return nil, translate(err, "listar equipamentos")
	}
	span.SetAttributes(attribute.Int("equipment.count", len(items)))
	return items, nil
}

func (r *EquipmentRepository) ListByStatus(ctx context.Context, status model.EquipmentStatus) (_ []*model.EquipmentEntity, err error) {
	ctx, span := startSpan(ctx, "EquipmentRepository.ListByStatus", "select", "equipment", attribute.String("equipment.status", string(status)))
	defer func() { finishSpan(span, err); span.End() }()

	var items []*model.EquipmentEntity
	if err = r.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at, id").Find(&items).Error; err != nil {
		return nil, translate(err, "listar equipamentos")
	}
	span.SetAttributes(attribute.Int("equipment.count", len(items)))
	return items, nil
}

// TransitionStatus faz um compare-and-set do status. Dois pedidos concorrentes
// sobre o mesmo equipamento nunca fazem a mesma transição ao mesmo tempo.
func (r *EquipmentRepository) TransitionStatus(ctx context.Context, id string, from, to model.EquipmentStatus) (_ bool, err error) {
	ctx, span := startSpan(ctx, "EquipmentRepository.TransitionStatus", "update", "equipment",
		attribute.String("equipment.id", id),
		attribute.String("equipment.from", string(from)),
		attribute.String("equipment.to", string(to)),
	)
	defer func() { finishSpan(span, err); span.End() }()

	result := r.db.WithContext(ctx).Model(&model.EquipmentEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return false, translate(result.Error, "alterar status do equipamento")
	}
	return result.RowsAffected == 1, nil
}
