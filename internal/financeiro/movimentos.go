package financeiro

import (
	"fmt"
	"sort"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/shopspring/decimal"
)

// Movimento é a linha do extrato exibida no financeiro.
type Movimento struct {
	ID           string          `json:"id"`
	OriginalID   uint            `json:"originalId"`
	Type         string          `json:"type"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Value        decimal.Decimal `json:"value"`
	Status       string          `json:"status"`
	HasProof     bool            `json:"hasProof"`
	PartnerID    uint            `json:"partnerId"`
	PartnerName  string          `json:"partnerName"`
	PartnerEmail string          `json:"partnerEmail,omitempty"`
}

func dadosDoParceiro(p *models.Partner) (string, string) {
	if p == nil || p.User == nil {
		return "Desconhecido", ""
	}
	return p.User.Name, p.User.Email
}

// Movimentos junta comissões e lançamentos manuais, mais recentes primeiro.
func Movimentos(comissoes []models.Lead, transacoes []models.Transaction) []Movimento {
	out := make([]Movimento, 0, len(comissoes)+len(transacoes))

	for _, l := range comissoes {
		nome, email := dadosDoParceiro(l.Partner)
		valor := decimal.Zero
		if l.CommissionValue != nil {
			valor = *l.CommissionValue
		}
		status := "pending"
		if l.PaymentStatus != nil && *l.PaymentStatus == models.PaymentMade {
			status = "paid"
		}
		out = append(out, Movimento{
			ID:           fmt.Sprintf("lead_%d", l.ID),
			OriginalID:   l.ID,
			Type:         "commission",
			Date:         l.UpdatedAt,
			Description:  "Comissão - Venda: " + l.Name,
			Value:        valor,
			Status:       status,
			HasProof:     l.HasProof,
			PartnerID:    l.PartnerID,
			PartnerName:  nome,
			PartnerEmail: email,
		})
	}

	for _, t := range transacoes {
		nome, email := dadosDoParceiro(t.Partner)
		desc := t.Description
		if desc == "" {
			desc = "Movimentação Manual"
		}
		out = append(out, Movimento{
			ID:           fmt.Sprintf("trans_%d", t.ID),
			OriginalID:   t.ID,
			Type:         string(t.Type),
			Date:         t.Date,
			Description:  desc,
			Value:        t.Amount,
			Status:       "paid",
			PartnerID:    t.PartnerID,
			PartnerName:  nome,
			PartnerEmail: email,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
