package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type stateLog struct {
	changes []bool
}

func (s *stateLog) CircuitBreakerStateChanged(_ string, open bool) {
	s.changes = append(s.changes, open)
}

func TestCircuitBreaker(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("redis fora do ar")
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	observer := &stateLog{}

	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "cache", MaxRequestsFail: 2, Timeout: time.Minute}, zaptest.NewLogger(t), observer)
	cb.now = func() time.Time { return now }

	fail := func(context.Context) error { return errDown }
	ok := func(context.Context) error { return nil }

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateClose, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.GetState(), "falha no half-open reabre")

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClose, cb.GetState())

	assert.Equal(t, []bool{true, true, false}, observer.changes)
}

func TestCircuitBreakerIgnoresCancellation(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "cache", MaxRequestsFail: 1}, zaptest.NewLogger(t), nil)

	err := cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClose, cb.GetState())
}
