package database

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.GetTracerProvider().Tracer("equipment-lending.repository")

// startSpan abre um span para uma operação de banco
func startSpan(ctx context.Context, name, operation, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finishSpan registra o resultado da operação no span
func finishSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetStatus(codes.Error, apperrors.Kind(err))
	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String("error.message", err.Error()),
	)
}

// translate converte erros do GORM nos erros do domínio
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, apperrors.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// forUpdate aplica SELECT ... FOR UPDATE nos bancos que suportam trava de linha.
// No SQLite a transação de escrita já serializa os escritores.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
