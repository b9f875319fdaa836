package model

import "time"

// Role identifica o papel de um usuário no sistema
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStudent  Role = "student"
	RoleConsulta Role = "consulta"
)

// Valid informa se o papel é conhecido
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleConsulta:
		return true
	}
	return false
}

// User representa um usuário do sistema
type User struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Role        Role    `json:"role"`
	DisplayName string  `json:"display_name"`
	Code        *string `json:"code,omitempty"`
}

// Actor devolve a identidade usada nas verificações de acesso
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Actor é a identidade autenticada que executa uma operação
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// UserEntity é a representação de banco de dados de um usuário
type UserEntity struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;not null;size:80"`
	PasswordHash string    `gorm:"not null;size:256"`
	Role         string    `gorm:"not null;size:20;index"`
	DisplayName  string    `gorm:"not null;size:100"`
	Code         *string   `gorm:"uniqueIndex;size:20"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (UserEntity) TableName() string {
	return "users"
}

// ToModel converte a entidade em modelo, sem o hash da senha
func (e *UserEntity) ToModel() *User {
	return &User{
		ID:          e.ID,
		Username:    e.Username,
		Role:        Role(e.Role),
		DisplayName: e.DisplayName,
		Code:        e.Code,
	}
}
