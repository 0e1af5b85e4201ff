package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// valores monetários saem como número no JSON, como o front espera
	decimal.MarshalJSONWithoutQuotes = true
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleConsultor Role = "consultor"
	RolePartner   Role = "partner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleConsultor, RolePartner:
		return true
	}
	return false
}

// User é a conta de acesso; parceiros têm também um Partner 1:1.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'partner'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Partner *Partner `gorm:"foreignKey:UserID" json:"Partner,omitempty"`
}

func (User) TableName() string { return "users" }
