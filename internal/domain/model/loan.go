package model

import "time"

// LoanState é o estado de um empréstimo. Active -> Returned é a única transição.
type LoanState string

const (
	LoanActive   LoanState = "Active"
	LoanReturned LoanState = "Returned"
)

// Loan representa um empréstimo de equipamento a um aluno
type Loan struct {
	ID               string     `json:"id"`
	EquipmentID      string     `json:"equipment_id"`
	StudentID        string     `json:"student_id"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpectedReturnAt *time.Time `json:"expected_return_at,omitempty"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty"`
	State            LoanState  `json:"state"`
	LateDays         int        `json:"late_days"`
	FineAmount       float64    `json:"fine_amount"`
}

// IsActive informa se o empréstimo ainda não foi devolvido
func (l *Loan) IsActive() bool {
	return l.State == LoanActive
}

// LoanEntity é a representação de banco de dados de um empréstimo
type LoanEntity struct {
	ID               string     `gorm:"primaryKey;size:26"`
	EquipmentID      string     `gorm:"not null;size:36;index"`
	StudentID        string     `gorm:"not null;size:36;index"`
	CreatedAt        time.Time  `gorm:"not null"`
	ExpectedReturnAt *time.Time `gorm:"column:expected_return_at"`
	ReturnedAt       *time.Time `gorm:"column:returned_at"`
	State            string     `gorm:"not null;size:20;index"`
	LateDays         int        `gorm:"not null"`
	FineAmount       float64    `gorm:"not null"`
}

// TableName define o nome da tabela
func (LoanEntity) TableName() string {
	return "loans"
}

// ToModel converte a entidade em modelo
func (e *LoanEntity) ToModel() *Loan {
	return &Loan{
		ID:               e.ID,
		EquipmentID:      e.EquipmentID,
		StudentID:        e.StudentID,
		CreatedAt:        e.CreatedAt,
		ExpectedReturnAt: e.ExpectedReturnAt,
		ReturnedAt:       e.ReturnedAt,
		State:            LoanState(e.State),
		LateDays:         e.LateDays,
		FineAmount:       e.FineAmount,
	}
}
