package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Tipos de erro do domínio. Os serviços embrulham estes valores com fmt.Errorf("...: %w", ...)
var (
	ErrNotFound       = errors.New("recurso não encontrado")
	ErrForbidden      = errors.New("acesso negado")
	ErrNotAvailable   = errors.New("equipamento não disponível")
	ErrInvalidState   = errors.New("estado inválido")
	ErrConflict       = errors.New("conflito com recurso existente")
	ErrInvalidInput   = errors.New("requisição inválida")
	ErrUnauthorized   = errors.New("não autorizado")
	ErrInternalServer = errors.New("erro interno do servidor")
)

// APIError representa um erro da API com informações adicionais
type APIError struct {
	Code        int         `json:"-"`
	Kind        string      `json:"kind"`
	Message     string      `json:"message"`
	Details     interface{} `json:"details,omitempty"`
	OriginalErr error       `json:"-"`
}

// Error implementa a interface error
func (e *APIError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
	}
	return e.Message
}

// Unwrap permite usar errors.Is e errors.As
func (e *APIError) Unwrap() error {
	return e.OriginalErr
}

// New cria um novo APIError
func New(code int, kind, message string, err error) *APIError {
	return &APIError{
		Code:        code,
		Kind:        kind,
		Message:     message,
		OriginalErr: err,
	}
}

// WithDetails adiciona detalhes ao erro
func (e *APIError) WithDetails(details interface{}) *APIError {
	e.Details = details
	return e
}

// Is, As e Join são reexportados para que os pacotes do projeto importem apenas este pacote
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

// Kind devolve o nome curto da categoria do erro (usado em métricas)
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotAvailable):
		return "not_available"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}

// FromError converte um erro de domínio no APIError correspondente
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind := Kind(err)
	switch kind {
	case "not_found":
		return New(http.StatusNotFound, kind, err.Error(), err)
	case "forbidden":
		return New(http.StatusForbidden, kind, "Acesso negado", err)
	case "not_available", "invalid_state", "conflict":
		return New(http.StatusConflict, kind, err.Error(), err)
	case "invalid_input":
		return New(http.StatusBadRequest, kind, err.Error(), err)
	case "unauthorized":
		return New(http.StatusUnauthorized, kind, "Autenticação necessária", err)
	default:
		return New(http.StatusInternalServerError, kind, "Erro interno do servidor", err)
	}
}

// BadRequest cria um erro 400
func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, "invalid_input", message, err)
}

// Unauthorized cria um erro 401
func Unauthorized(message string, err error) *APIError {
	if message == "" {
		message = "Autenticação necessária"
	}
	return New(http.StatusUnauthorized, "unauthorized", message, err)
}
