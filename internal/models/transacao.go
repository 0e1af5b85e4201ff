package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction é um lançamento manual do financeiro (crédito ou débito).
// LeadID, quando presente, amarra um débito ao pagamento de uma comissão.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PartnerID   uint            `gorm:"not null;index" json:"partnerId"`
	LeadID      *uint           `gorm:"index" json:"leadId"`
	Type        TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Partner *Partner `gorm:"foreignKey:PartnerID" json:"Partner,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }
