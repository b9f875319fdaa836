package database

import (
	"context"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserRepository implementa repository.UserRepository com GORM
type UserRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository cria um repositório de usuários ligado ao handle informado
func NewUserRepository(db *gorm.DB, logger *zap.Logger) repository.UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, user *model.UserEntity) (err error) {
	ctx, span := startSpan(ctx, "UserRepository.Create", "insert", "users", attribute.String("user.username", user.Username))
	defer func() { finishSpan(span, err); span.End() }()

	if err = r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.logger.Warn("falha ao criar usuário", zap.String("username", user.Username), zap.Error(err))
		return translate(err, "criar usuário")
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.UserEntity) (err error) {
	ctx, span := startSpan(ctx, "UserRepository.Update", "update", "users", attribute.String("user.id", user.ID))
	defer func() { finishSpan(span, err); span.End() }()

	if err = r.db.WithContext(ctx).Save(user).Error; err != nil {
		r.logger.Warn("falha ao atualizar usuário", zap.String("id", user.ID), zap.Error(err))
		return translate(err, "atualizar usuário")
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "UserRepository.Delete", "delete", "users", attribute.String("user.id", id))
	defer func() { finishSpan(span, err); span.End() }()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UserEntity{})
	if result.Error != nil {
		return translate(result.Error, "excluir usuário")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "usuário "+id)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (_ *model.UserEntity, err error) {
	ctx, span := startSpan(ctx, "UserRepository.GetByID", "select", "users", attribute.String("user.id", id))
	defer func() { finishSpan(span, err); span.End() }()

	var user model.UserEntity
	if err = r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "usuário "+id)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (_ *model.UserEntity, err error) {
	ctx, span := startSpan(ctx, "UserRepository.GetByUsername", "select", "users", attribute.String("user.username", username))
	defer func() { finishSpan(span, err); span.End() }()

	var user model.UserEntity
	if err = r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "usuário "+username)
	}
	return &user, nil
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	return r.exists(ctx, "username", username, exceptID)
}

func (r *UserRepository) CodeTaken(ctx context.Context, code, exceptID string) (bool, error) {
	return r.exists(ctx, "code", code, exceptID)
}

func (r *UserRepository) exists(ctx context.Context, column, value, exceptID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.UserEntity{}).Where(column+" = ?", value)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translate(err, "verificar "+column)
	}
	return count > 0, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role model.Role) (_ []*model.UserEntity, err error) {
	ctx, span := startSpan(ctx, "UserRepository.ListByRole", "select", "users", attribute.String("user.role", string(role)))
	defer func() { finishSpan(span, err); span.End() }()

	var users []*model.UserEntity
	if err = r.db.WithContext(ctx).Where("role = ?", string(role)).Order("created_at, id").Find(&users).Error; err != nil {
		return nil, translate(err, "listar usuários")
	}
	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}
