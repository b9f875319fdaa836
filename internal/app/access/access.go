// Package access concentra as regras de autorização por papel.
package access

import (
	"fmt"

	"github.com/diillson/equipment-lending/internal/domain/model"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
)

// Operation identifica uma operação sujeita a autorização
type Operation string

const (
	ManageEquipment        Operation = "equipment.manage"
	ViewEquipment          Operation = "equipment.view"
	ViewAvailableEquipment Operation = "equipment.view_available"
	ManageStudents         Operation = "students.manage"
	ViewStudents           Operation = "students.view"
	CreateLoan             Operation = "loan.create"
	ReturnLoan             Operation = "loan.return"
	ViewActiveLoans        Operation = "loan.view_active"
	ViewLoanHistory        Operation = "loan.view_history"
	ManageUsers            Operation = "users.manage"
)

// Scope é o alcance de uma permissão
type Scope int

const (
	// None nega a operação
	None Scope = iota
	// Own permite apenas sobre registros do próprio ator
	Own
	// All permite sobre qualquer registro
	All
)

var matrix = map[Operation]map[model.Role]Scope{
	ManageEquipment:        {model.RoleAdmin: All},
	ViewEquipment:          {model.RoleAdmin: All},
	ViewAvailableEquipment: {model.RoleAdmin: All, model.RoleStudent: All},
	ManageStudents:         {model.RoleAdmin: All},
	ViewStudents:           {model.RoleAdmin: All, model.RoleConsulta: All},
	CreateLoan:             {model.RoleStudent: Own},
	ReturnLoan:             {model.RoleAdmin: All, model.RoleStudent: Own},
	ViewActiveLoans:        {model.RoleAdmin: All, model.RoleStudent: Own},
	ViewLoanHistory:        {model.RoleAdmin: All, model.RoleStudent: Own},
	ManageUsers:            {model.RoleAdmin: All},
}

// ScopeFor devolve o alcance do papel na operação. Operações desconhecidas são negadas.
func ScopeFor(op Operation, role model.Role) Scope {
	return matrix[op][role]
}

// Authorize verifica se o ator pode executar a operação. ownerID é o dono do
// registro alvo; vazio quando a operação não tem alvo (listagens, criação).
func Authorize(op Operation, actor model.Actor, ownerID string) error {
	switch ScopeFor(op, actor.Role) {
	case All:
		return nil
	case Own:
		if actor.ID != "" && (ownerID == "" || ownerID == actor.ID) {
			return nil
		}
	}
	return fmt.Errorf("%s negado para o papel %q: %w", op, actor.Role, apperrors.ErrForbidden)
}

// Can é a forma booleana de Authorize
func Can(op Operation, actor model.Actor, ownerID string) bool {
	return Authorize(op, actor, ownerID) == nil
}

// LandingPath é a página para onde o ator é levado quando um acesso é negado
func LandingPath(role model.Role) string {
	if ScopeFor(ViewLoanHistory, role) != None {
		return "/loans/history"
	}
	if ScopeFor(ViewStudents, role) != None {
		return "/students"
	}
	return "/auth/login"
}
