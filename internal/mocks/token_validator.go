package mocks

import (
	"context"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

// MockTokenValidator é um mock de middleware.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
