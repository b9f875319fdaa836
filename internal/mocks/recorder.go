package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockLoanRecorder é um mock de loan.Recorder
type MockLoanRecorder struct {
	mock.Mock
}

func (m *MockLoanRecorder) LoanCreated() {
	m.Called()
}

func (m *MockLoanRecorder) LoanReturned(lateDays int, fine float64) {
	m.Called(lateDays, fine)
}

func (m *MockLoanRecorder) OperationFailed(operation, kind string) {
	m.Called(operation, kind)
}
