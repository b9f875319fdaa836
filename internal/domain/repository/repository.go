package repository

import (
	"context"

	"github.com/diillson/equipment-lending/internal/domain/model"
)

// UserRepository define o acesso ao cadastro de usuários
type UserRepository interface {
	// Create insere um usuário já com o hash da senha
	Create(ctx context.Context, user *model.UserEntity) error

	// Update grava todas as colunas do usuário
	Update(ctx context.Context, user *model.UserEntity) error

	// Delete remove o usuário pelo id
	Delete(ctx context.Context, id string) error

	// GetByID busca o usuário pelo id
	GetByID(ctx context.Context, id string) (*model.UserEntity, error)

	// GetByUsername busca o usuário pelo nome de usuário
	GetByUsername(ctx context.Context, username string) (*model.UserEntity, error)

	// UsernameTaken informa se outro usuário (diferente de exceptID) já usa o username
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)

	// CodeTaken informa se outro usuário (diferente de exceptID) já usa o código
	CodeTaken(ctx context.Context, code, exceptID string) (bool, error)

	// ListByRole lista os usuários com o papel informado
	ListByRole(ctx context.Context, role model.Role) ([]*model.UserEntity, error)
}

// EquipmentRepository define o acesso ao inventário
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *model.EquipmentEntity) error
	Update(ctx context.Context, equipment *model.EquipmentEntity) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.EquipmentEntity, error)

	// GetByIDForUpdate busca o equipamento travando a linha até o fim da transação
	GetByIDForUpdate(ctx context.Context, id string) (*model.EquipmentEntity, error)

	CodeTaken(ctx context.Context, code, exceptID string) (bool, error)
	List(ctx context.Context) ([]*model.EquipmentEntity, error)
	ListByStatus(ctx context.Context, status model.EquipmentStatus) ([]*model.EquipmentEntity, error)

	// TransitionStatus troca o status apenas se o atual for from. Retorna false se nenhuma linha mudou.
	TransitionStatus(ctx context.Context, id string, from, to model.EquipmentStatus) (bool, error)
}

// LoanFilter restringe as listagens de empréstimos. Campos vazios não filtram.
type LoanFilter struct {
	StudentID string
	State     model.LoanState
}

// LoanRepository define o acesso ao livro de empréstimos
type LoanRepository interface {
	Create(ctx context.Context, loan *model.LoanEntity) error
	GetByID(ctx context.Context, id string) (*model.LoanEntity, error)

	// GetByIDForUpdate busca o empréstimo travando a linha até o fim da transação
	GetByIDForUpdate(ctx context.Context, id string) (*model.LoanEntity, error)

	// MarkReturned fecha o empréstimo se ainda estiver ativo. Retorna false se já estava devolvido.
	MarkReturned(ctx context.Context, loan *model.LoanEntity) (bool, error)

	// List devolve os empréstimos em ordem de inserção
	List(ctx context.Context, filter LoanFilter) ([]*model.LoanEntity, error)

	// CountActiveByEquipment conta empréstimos ativos de um equipamento
	CountActiveByEquipment(ctx context.Context, equipmentID string) (int64, error)

	// DeleteByStudent remove todos os empréstimos do aluno
	DeleteByStudent(ctx context.Context, studentID string) error
}

// Repositories agrupa os repositórios ligados a um mesmo handle (banco ou transação)
type Repositories interface {
	Users() UserRepository
	Equipment() EquipmentRepository
	Loans() LoanRepository
}

// Store abre transações. Cada operação que altera estado roda inteira dentro de WithinTx.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
}
