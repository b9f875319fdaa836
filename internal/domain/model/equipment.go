package model

import "time"

// EquipmentStatus indica se o equipamento pode ser emprestado
type EquipmentStatus string

const (
	EquipmentAvailable EquipmentStatus = "Available"
	EquipmentLoaned    EquipmentStatus = "Loaned"
)

// Equipment representa um equipamento emprestável
type Equipment struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Status    EquipmentStatus `json:"status"`
	Condition string          `json:"condition"`
	// DailyFineRate nil significa "não configurada": vale a taxa padrão.
	// Zero explícito significa equipamento sem multa.
	DailyFineRate *float64 `json:"daily_fine_rate,omitempty"`
}

// EquipmentEntity é a representação de banco de dados de um equipamento
type EquipmentEntity struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Code          string    `gorm:"uniqueIndex;not null;size:50"`
	Name          string    `gorm:"not null;size:100"`
	Status        string    `gorm:"not null;size:20;index"`
	Condition     string    `gorm:"type:text"`
	DailyFineRate *float64  `gorm:"column:daily_fine_rate"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (EquipmentEntity) TableName() string {
	return "equipment"
}

// ToModel converte a entidade em modelo
func (e *EquipmentEntity) ToModel() *Equipment {
	return &Equipment{
		ID:            e.ID,
		Code:          e.Code,
		Name:          e.Name,
		Status:        EquipmentStatus(e.Status),
		Condition:     e.Condition,
		DailyFineRate: e.DailyFineRate,
	}
}
