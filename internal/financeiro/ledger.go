package financeiro

import (
	"github.com/shopspring/decimal"
)

// TipoLancamento identifica a origem de um valor no razão do parceiro.
type TipoLancamento string

const (
	LancamentoComissao TipoLancamento = "commission"
	LancamentoCredito  TipoLancamento = "manual_credit"
	LancamentoDebito   TipoLancamento = "manual_debit"
)

// Lancamento é uma entrada (ou um agregado de entradas do mesmo tipo) do razão.
//
// Comissões vêm de leads com venda fechada; Pago indica payment_made.
// Débitos manuais marcados com QuitaComissaoPaga apontam para um lead cuja
// comissão já consta como paga e por isso não contam de novo como recebidos.
type Lancamento struct {
	Tipo              TipoLancamento
	Valor             decimal.Decimal
	Venda             decimal.Decimal
	Pago              bool
	QuitaComissaoPaga bool
}

// Resumo são os totais financeiros de um parceiro ou da operação inteira.
type Resumo struct {
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalReceived decimal.Decimal `json:"totalReceived"`
	TotalCredits  decimal.Decimal `json:"totalCredits"`
	Balance       decimal.Decimal `json:"balance"`
}

// Consolidar soma o razão. Sempre vale Balance == TotalEarnings - TotalReceived.
// Créditos manuais são informativos e não alteram o saldo.
func Consolidar(lancamentos []Lancamento) Resumo {
	r := Resumo{
		TotalEarnings: decimal.Zero,
		TotalSales:    decimal.Zero,
		TotalReceived: decimal.Zero,
		TotalCredits:  decimal.Zero,
	}
	for _, l := range lancamentos {
		switch l.Tipo {
		case LancamentoComissao:
			r.TotalEarnings = r.TotalEarnings.Add(l.Valor)
			r.TotalSales = r.TotalSales.Add(l.Venda)
			if l.Pago {
				r.TotalReceived = r.TotalReceived.Add(l.Valor)
			}
		case LancamentoDebito:
			if !l.QuitaComissaoPaga {
				r.TotalReceived = r.TotalReceived.Add(l.Valor)
			}
		case LancamentoCredito:
			r.TotalCredits = r.TotalCredits.Add(l.Valor)
		}
	}
	r.TotalEarnings = r.TotalEarnings.Round(2)
	r.TotalSales = r.TotalSales.Round(2)
	r.TotalReceived = r.TotalReceived.Round(2)
	r.TotalCredits = r.TotalCredits.Round(2)
	r.Balance = r.TotalEarnings.Sub(r.TotalReceived)
	return r
}
