package mocks

import (
	"context"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

// MockUserDirectory é um mock de auth.UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserDirectory) GetUser(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
