package lead

import (
	"github.com/shopspring/decimal"
)

type createRequest struct {
	PartnerID         *uint            `json:"partnerId"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	Phone             string           `json:"phone"`
	Company           string           `json:"company"`
	Type              string           `json:"type"`
	Document          string           `json:"document"`
	Value             *decimal.Decimal `json:"value"`
	Status            string           `json:"status"`
	Observation       string           `json:"observation"`
	NumberOfEmployees string           `json:"numberOfEmployees"`
	SpeakOnBehalf     *bool            `json:"speakOnBehalf"`
}

// updateRequest: campos ausentes não são alterados.
type updateRequest struct {
	Name                 *string          `json:"name"`
	Email                *string          `json:"email"`
	Phone                *string          `json:"phone"`
	Company              *string          `json:"company"`
	Type                 *string          `json:"type"`
	Document             *string          `json:"document"`
	Value                *decimal.Decimal `json:"value"`
	Status               *string          `json:"status"`
	Observation          *string          `json:"observation"`
	NumberOfEmployees    *string          `json:"numberOfEmployees"`
	SpeakOnBehalf        *bool            `json:"speakOnBehalf"`
	SaleClosed           *bool            `json:"saleClosed"`
	PaymentStatus        *string          `json:"paymentStatus"`
	SaleValue            *decimal.Decimal `json:"saleValue"`
	CommissionPercentage *decimal.Decimal `json:"commissionPercentage"`
	CommissionValue      *decimal.Decimal `json:"commissionValue"`
	CommissionProof      *string          `json:"commissionProof"`
}

// mexeEmVenda indica campos de fechamento e pagamento da comissão.
func (r updateRequest) mexeEmVenda() bool {
	return r.SaleClosed != nil || r.PaymentStatus != nil || r.SaleValue != nil ||
		r.CommissionPercentage != nil || r.CommissionValue != nil || r.CommissionProof != nil
}

type noteRequest struct {
	Content string `json:"content"`
}

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Duration    *string `json:"duration"`
	Done        *bool   `json:"done"`
}
