package lead

import (
	"strings"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/shopspring/decimal"
)

// LimiteMensalSemAutorizacao é quantos leads com speakOnBehalf=false um
// parceiro pode criar por mês civil.
const LimiteMensalSemAutorizacao = 10

const msgCotaExcedida = "Você atingiu o limite mensal de 10 leads sem autorização para a Tirvu falar em seu nome."

var cem = decimal.NewFromInt(100)

// CalcularComissao devolve saleValue × pct / 100 com duas casas.
func CalcularComissao(saleValue, pct decimal.Decimal) decimal.Decimal {
	return saleValue.Mul(pct).Div(cem).Round(2)
}

// MesCivil devolve [início, fim) do mês de t no fuso informado.
func MesCivil(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	inicio := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return inicio, inicio.AddDate(0, 1, 0)
}

func tipoValido(t string) (models.LeadType, error) {
	switch models.LeadType(strings.ToUpper(strings.TrimSpace(t))) {
	case "", models.LeadPF:
		return models.LeadPF, nil
	case models.LeadPJ:
		return models.LeadPJ, nil
	}
	return "", utils.Validacao("Tipo deve ser PF ou PJ.")
}

func statusInicial(s string) (models.LeadStatus, error) {
	st := models.LeadStatus(strings.TrimSpace(s))
	if st == "" {
		return models.LeadNew, nil
	}
	if !st.StatusBase() {
		return "", utils.Validacao("Status inválido.")
	}
	return st, nil
}

func limparOpcional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// aplicarAtualizacao valida e aplica a atualização parcial sobre o lead.
func aplicarAtualizacao(l *models.Lead, req updateRequest) error {
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return utils.Validacao("Nome é obrigatório.")
		}
		l.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		l.Email = *req.Email
	}
	if req.Phone != nil {
		l.Phone = *req.Phone
	}
	if req.Company != nil {
		l.Company = *req.Company
	}
	if req.Document != nil {
		l.Document = *req.Document
	}
	if req.Observation != nil {
		l.Observation = *req.Observation
	}
	if req.NumberOfEmployees != nil {
		l.NumberOfEmployees = *req.NumberOfEmployees
	}
	if req.Type != nil {
		t, err := tipoValido(*req.Type)
		if err != nil {
			return err
		}
		l.Type = t
	}
	if req.Value != nil {
		if req.Value.IsNegative() {
			return utils.Validacao("Valor não pode ser negativo.")
		}
		l.Value = req.Value.Round(2)
	}
	if req.Status != nil {
		st := models.LeadStatus(strings.TrimSpace(*req.Status))
		// estágios do CRM só chegam via webhook; reenviar o atual é permitido
		if st != l.Status && !st.StatusBase() {
			return utils.Validacao("Status inválido.")
		}
		l.Status = st
	}
	if req.SpeakOnBehalf != nil {
		l.SpeakOnBehalf = *req.SpeakOnBehalf
	}

	if req.PaymentStatus != nil {
		ps := models.PaymentStatus(strings.TrimSpace(*req.PaymentStatus))
		switch {
		case ps == "":
			l.PaymentStatus = nil
		case ps.Valid():
			l.PaymentStatus = &ps
		default:
			return utils.Validacao("Status de pagamento inválido.")
		}
	}
	if req.SaleValue != nil {
		if req.SaleValue.IsNegative() {
			return utils.Validacao("Valor da venda não pode ser negativo.")
		}
		v := req.SaleValue.Round(2)
		l.SaleValue = &v
	}
	if req.CommissionPercentage != nil {
		if req.CommissionPercentage.IsNegative() || req.CommissionPercentage.GreaterThan(cem) {
			return utils.Validacao("Percentual de comissão deve estar entre 0 e 100.")
		}
		v := req.CommissionPercentage.Round(2)
		l.CommissionPercentage = &v
	}
	if req.CommissionValue != nil {
		if req.CommissionValue.IsNegative() {
			return utils.Validacao("Valor da comissão não pode ser negativo.")
		}
		v := req.CommissionValue.Round(2)
		l.CommissionValue = &v
	}
	if req.CommissionProof != nil {
		l.CommissionProof = limparOpcional(req.CommissionProof)
	}

	fechando := req.SaleClosed != nil && *req.SaleClosed
	if fechando && l.Status != models.LeadConverted {
		return utils.Validacao("A venda só pode ser fechada para leads convertidos.")
	}
	if req.SaleClosed != nil {
		l.SaleClosed = *req.SaleClosed
	}

	recalcular := req.SaleValue != nil || req.CommissionPercentage != nil || fechando
	if req.CommissionValue == nil && recalcular && l.SaleValue != nil && l.CommissionPercentage != nil {
		v := CalcularComissao(*l.SaleValue, *l.CommissionPercentage)
		l.CommissionValue = &v
	}
	return nil
}

// parseDueDate aceita RFC3339 ou apenas a data.
func parseDueDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return &t, nil
	}
	return nil, utils.Validacao("Data de vencimento inválida.")
}
