package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeadStatus string

const (
	LeadNew         LeadStatus = "new"
	LeadContact     LeadStatus = "contact"
	LeadNegotiation LeadStatus = "negotiation"
	LeadConverted   LeadStatus = "converted"
	LeadLost        LeadStatus = "lost"

	// Estágios do CRM, aplicados apenas via webhook.
	LeadQualified        LeadStatus = "qualified"
	LeadMeetingScheduled LeadStatus = "meeting_scheduled"
	LeadProposalSent     LeadStatus = "proposal_sent"
)

// StatusBase indica os status aceitos pela API; os demais só chegam pelo CRM.
func (s LeadStatus) StatusBase() bool {
	switch s {
	case LeadNew, LeadContact, LeadNegotiation, LeadConverted, LeadLost:
		return true
	}
	return false
}

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadQualified, LeadMeetingScheduled, LeadProposalSent:
		return true
	}
	return s.StatusBase()
}

type LeadType string

const (
	LeadPF LeadType = "PF"
	LeadPJ LeadType = "PJ"
)

type PaymentStatus string

const (
	AwaitingPayment PaymentStatus = "awaiting_payment"
	PaymentMade     PaymentStatus = "payment_made"
)

func (p PaymentStatus) Valid() bool { return p == AwaitingPayment || p == PaymentMade }

// Label é o texto usado nas mensagens de WhatsApp.
func (p PaymentStatus) Label() string {
	switch p {
	case PaymentMade:
		return "Pagamento Efetuado"
	case AwaitingPayment:
		return "Aguardando Pagamento"
	}
	return "Não informado"
}

type Lead struct {
	ID                   uint             `gorm:"primaryKey" json:"id"`
	PartnerID            uint             `gorm:"not null;index" json:"partnerId"`
	Name                 string           `gorm:"not null" json:"name"`
	Company              string           `json:"company"`
	Email                string           `json:"email"`
	Phone                string           `json:"phone"`
	Type                 LeadType         `gorm:"type:varchar(2);not null;default:'PF'" json:"type"`
	Document             string           `json:"document"`
	Observation          string           `gorm:"type:text" json:"observation"`
	NumberOfEmployees    string           `json:"numberOfEmployees"`
	Status               LeadStatus       `gorm:"type:varchar(30);not null;default:'new';index" json:"status"`
	Value                decimal.Decimal  `gorm:"type:numeric(10,2);not null;default:0" json:"value"`
	SaleClosed           bool             `gorm:"not null;default:false;index" json:"saleClosed"`
	PaymentStatus        *PaymentStatus   `gorm:"type:varchar(20)" json:"paymentStatus"`
	SaleValue            *decimal.Decimal `gorm:"type:numeric(10,2)" json:"saleValue"`
	CommissionPercentage *decimal.Decimal `gorm:"type:numeric(5,2)" json:"commissionPercentage"`
	CommissionValue      *decimal.Decimal `gorm:"type:numeric(10,2)" json:"commissionValue"`
	CommissionProof      *string          `gorm:"type:text" json:"commissionProof,omitempty"`
	ProofObjectKey       *string          `json:"proofObjectKey,omitempty"`
	SpeakOnBehalf        bool             `gorm:"not null" json:"speakOnBehalf"`
	RefID                *string          `gorm:"uniqueIndex" json:"refId"`
	PipedriveID          *string          `gorm:"index" json:"pipedriveId"`
	CreatedAt            time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`

	NotesCount int64 `gorm:"->;-:migration" json:"notesCount"`
	HasProof   bool  `gorm:"->;-:migration" json:"hasProof"`

	Partner *Partner `gorm:"foreignKey:PartnerID" json:"Partner,omitempty"`
}

func (Lead) TableName() string { return "leads" }

type LeadNote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LeadID      uint      `gorm:"not null;index" json:"leadId"`
	UserID      *uint     `json:"userId"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	PipedriveID *string   `gorm:"uniqueIndex" json:"pipedriveId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

func (LeadNote) TableName() string { return "lead_notes" }

type LeadTask struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	LeadID      uint       `gorm:"not null;index" json:"leadId"`
	UserID      *uint      `json:"userId"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Duration    string     `json:"duration"`
	Done        bool       `gorm:"not null;default:false" json:"done"`
	PipedriveID *string    `gorm:"uniqueIndex" json:"pipedriveId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (LeadTask) TableName() string { return "lead_tasks" }
