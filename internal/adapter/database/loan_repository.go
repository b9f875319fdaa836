package database

import (
	"context"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoanRepository implementa repository.LoanRepository com GORM
type LoanRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLoanRepository cria um repositório de empréstimos ligado ao handle informado
func NewLoanRepository(db *gorm.DB, logger *zap.Logger) repository.LoanRepository {
	return &LoanRepository{db: db, logger: logger}
}

func (r *LoanRepository) Create(ctx context.Context, loan *model.LoanEntity) (err error) {
	ctx, span := startSpan(ctx, "LoanRepository.Create", "insert", "loans",
		attribute.String("loan.id", loan.ID),
		attribute.String("equipment.id", loan.EquipmentID),
	)
	defer func() { finishSpan(span, err); span.End() }()

	if err = r.db.WithContext(ctx).Create(loan).Error; err != nil {
		r.logger.Warn("falha ao registrar empréstimo", zap.String("id", loan.ID), zap.Error(err))
		return translate(err, "registrar empréstimo")
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*model.LoanEntity, error) {
	return r.get(ctx, r.db, id)
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.LoanEntity, error) {
	return r.get(ctx, forUpdate(r.db), id)
}

func (r *LoanRepository) get(ctx context.Context, db *gorm.DB, id string) (_ *model.LoanEntity, err error) {
	ctx, span := startSpan(ctx, "LoanRepository.GetByID", "select", "loans", attribute.String("loan.id", id))
	defer func() { finishSpan(span, err); span.End() }()

	var loan model.LoanEntity
	if err = db.WithContext(ctx).Where("id = ?", id).First(&loan).Error; err != nil {
		return nil, translate(err, "empréstimo "+id)
	}
	return &loan, nil
}

// MarkReturned grava a devolução só se o empréstimo ainda estiver ativo
func (r *LoanRepository) MarkReturned(ctx context.Context, loan *model.LoanEntity) (_ bool, err error) {
	ctx, span := startSpan(ctx, "LoanRepository.MarkReturned", "update", "loans", attribute.String("loan.id", loan.ID))
	defer func() { finishSpan(span, err); span.End() }()

	result := r.db.WithContext(ctx).Model(&model.LoanEntity{}).
		Where("id = ? AND state = ?", loan.ID, string(model.LoanActive)).
		Updates(map[string]interface{}{
			"state":       string(model.LoanReturned),
			"returned_at": loan.ReturnedAt,
			"late_days":   loan.LateDays,
			"fine_amount": loan.FineAmount,
		})
	if result.Error != nil {
		return false, translate(result.Error, "registrar devolução")
	}
	return result.RowsAffected == 1, nil
}

func (r *LoanRepository) List(ctx context.Context, filter repository.LoanFilter) (_ []*model.LoanEntity, err error) {
	ctx, span := startSpan(ctx, "LoanRepository.List", "select", "loans",
		attribute.String("loan.student_id", filter.StudentID),
		attribute.String("loan.state", string(filter.State)),
	)
	defer func() { finishSpan(span, err); span.End() }()

	query := r.db.WithContext(ctx).Model(&model.LoanEntity{})
	if filter.StudentID != "" {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.State != "" {
		query = query.Where("state = ?", string(filter.State))
	}

	// ids são ULID: a ordem lexicográfica é a ordem de inserção
	var loans []*model.LoanEntity
	if err = query.Order("id").Find(&loans).Error; err != nil {
		return nil, translate(err, "listar empréstimos")
	}
	span.SetAttributes(attribute.Int("loan.count", len(loans)))
	return loans, nil
}

func (r *LoanRepository) CountActiveByEquipment(ctx context.Context, equipmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LoanEntity{}).
		Where("equipment_id = ? AND state = ?", equipmentID, string(model.LoanActive)).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "contar empréstimos ativos")
	}
	return count, nil
}

func (r *LoanRepository) DeleteByStudent(ctx context.Context, studentID string) (err error) {
	ctx, span := startSpan(ctx, "LoanRepository.DeleteByStudent", "delete", "loans", attribute.String("loan.student_id", studentID))
	defer func() { finishSpan(span, err); span.End() }()

	result := r.db.WithContext(ctx).Where("student_id = ?", studentID).Delete(&model.LoanEntity{})
	if result.Error != nil {
		return translate(result.Error, "excluir empréstimos do aluno")
	}
	span.SetAttributes(attribute.Int64("loan.deleted", result.RowsAffected))
	return nil
}
