package models

import "time"

type PartnerStatus string

const (
	PartnerPending  PartnerStatus = "pending"
	PartnerApproved PartnerStatus = "approved"
	PartnerRejected PartnerStatus = "rejected"
)

var pixKeyTypes = map[string]bool{"cpf": true, "cnpj": true, "email": true, "phone": true, "random": true}

func PixKeyTypeValido(t string) bool { return pixKeyTypes[t] }

type Partner struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"uniqueIndex;not null" json:"userId"`
	Status          PartnerStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Phone           string        `json:"phone"`
	UF              string        `gorm:"column:uf;size:2" json:"uf"`
	City            string        `json:"city"`
	PixKey          *string       `json:"pixKey"`
	PixKeyType      *string       `gorm:"type:varchar(10)" json:"pixKeyType"`
	RejectionReason *string       `gorm:"type:text" json:"rejectionReason"`
	ConsultantID    *uint         `gorm:"index" json:"consultantId"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`

	User       *User `gorm:"foreignKey:UserID" json:"User,omitempty"`
	Consultant *User `gorm:"foreignKey:ConsultantID" json:"Consultant,omitempty"`
}

func (Partner) TableName() string { return "partners" }
