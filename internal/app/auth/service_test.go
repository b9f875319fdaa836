package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diillson/equipment-lending/internal/app/auth"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/mocks"
	"github.com/diillson/equipment-lending/internal/testutils"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/diillson/equipment-lending/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*auth.AuthService, *mocks.MockUserDirectory) {
	logger := testutils.TestLogger(t)
	km, err := security.NewKeyManager("0123456789abcdef0123456789abcdef", logger)
	require.NoError(t, err)

	users := new(mocks.MockUserDirectory)
	return auth.NewAuthService(km, users, time.Hour, logger), users
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	service, users := newAuthService(t)
	student := &model.User{ID: "u1", Username: "ana", Role: model.RoleStudent}

	t.Run("credenciais válidas", func(t *testing.T) {
		users.On("VerifyCredentials", mock.Anything, "ana", "secret123").Return(student, nil).Once()

		result, err := service.Login(ctx, "ana", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, student, result.User)
		assert.True(t, result.ExpiresAt.After(time.Now()))
		users.AssertExpectations(t)
	})

	t.Run("credenciais inválidas", func(t *testing.T) {
		users.On("VerifyCredentials", mock.Anything, "ana", "errada").
			Return(nil, apperrors.Unauthorized("credenciais inválidas", apperrors.ErrUnauthorized)).Once()

		result, err := service.Login(ctx, "ana", "errada")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		users.AssertExpectations(t)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()
	service, users := newAuthService(t)
	admin := &model.User{ID: "a1", Username: "admin", Role: model.RoleAdmin}

	users.On("VerifyCredentials", mock.Anything, "admin", "admin123").Return(admin, nil)
	login, err := service.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	t.Run("token válido", func(t *testing.T) {
		users.On("GetUser", mock.Anything, "a1").Return(admin, nil).Once()

		user, err := service.ValidateToken(ctx, login.Token)
		require.NoError(t, err)
		assert.Equal(t, admin, user)
	})

	t.Run("usuário removido", func(t *testing.T) {
		users.On("GetUser", mock.Anything, "a1").Return(nil, apperrors.ErrNotFound).Once()

		_, err := service.ValidateToken(ctx, login.Token)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("falha do banco", func(t *testing.T) {
		users.On("GetUser", mock.Anything, "a1").Return(nil, errors.New("database is locked")).Once()

		_, err := service.ValidateToken(ctx, login.Token)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("token inválido", func(t *testing.T) {
		_, err := service.ValidateToken(ctx, "abc.def.ghi")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}
