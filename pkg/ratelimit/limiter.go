package ratelimit

import (
	"context"
	"errors"
	"time"
)

// LimitConfig configura o comportamento do limitador
type LimitConfig struct {
	Key    string        // Chave única para identificar o limite
	Limit  int           // Número máximo de requisições no período
	Period time.Duration // Período de tempo para o limite
	Burst  int           // Rajada aceita pelo limitador em memória (0 = Limit)
}

func (c LimitConfig) validate() error {
	if c.Limit <= 0 {
		return errors.New("limite deve ser maior que zero")
	}
	if c.Period <= 0 {
		return errors.New("período deve ser maior que zero")
	}
	return nil
}

// Result é a decisão do limitador para uma requisição
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter decide se uma requisição identificada por Key pode seguir
type Limiter interface {
	Allow(ctx context.Context, config LimitConfig) (Result, error)
}
