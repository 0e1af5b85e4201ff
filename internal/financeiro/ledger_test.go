package financeiro

import (
	"testing"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConsolidarVendaPaga(t *testing.T) {
	r := Consolidar([]Lancamento{
		{Tipo: LancamentoComissao, Valor: d("100.00"), Venda: d("1000.00"), Pago: true},
	})
	assert.True(t, d("100").Equal(r.TotalEarnings))
	assert.True(t, d("100").Equal(r.TotalReceived))
	assert.True(t, d("1000").Equal(r.TotalSales))
	assert.True(t, r.Balance.IsZero())
}

func TestConsolidarSaldo(t *testing.T) {
	cases := map[string][]Lancamento{
		"vazio": nil,
		"pendente": {
			{Tipo: LancamentoComissao, Valor: d("250.50"), Venda: d("2505")},
		},
		"debito avulso": {
			{Tipo: LancamentoComissao, Valor: d("300"), Venda: d("3000")},
			{Tipo: LancamentoDebito, Valor: d("120.25")},
		},
		"debito de comissao ja paga nao conta": {
			{Tipo: LancamentoComissao, Valor: d("80"), Venda: d("800"), Pago: true},
			{Tipo: LancamentoDebito, Valor: d("80"), QuitaComissaoPaga: true},
		},
		"credito nao mexe no saldo": {
			{Tipo: LancamentoComissao, Valor: d("10"), Venda: d("100")},
			{Tipo: LancamentoCredito, Valor: d("999")},
		},
	}
	for nome, ls := range cases {
		t.Run(nome, func(t *testing.T) {
			r := Consolidar(ls)
			assert.True(t, r.TotalEarnings.Sub(r.TotalReceived).Equal(r.Balance))
		})
	}

	r := Consolidar(cases["debito de comissao ja paga nao conta"])
	assert.True(t, d("80").Equal(r.TotalReceived))

	r = Consolidar(cases["credito nao mexe no saldo"])
	assert.True(t, d("10").Equal(r.Balance))
	assert.True(t, d("999").Equal(r.TotalCredits))
}

func TestMovimentosOrdenados(t *testing.T) {
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	pago := models.PaymentMade
	cv := d("50")
	leads := []models.Lead{
		{ID: 1, Name: "ACME", CommissionValue: &cv, PaymentStatus: &pago, UpdatedAt: base, HasProof: true,
			Partner: &models.Partner{User: &models.User{Name: "Ana", Email: "ana@x.com"}}},
		{ID: 2, Name: "Beta", UpdatedAt: base.Add(-48 * time.Hour)},
	}
	trans := []models.Transaction{
		{ID: 9, Type: models.TransactionDebit, Amount: d("20"), Date: base.Add(time.Hour)},
	}

	got := Movimentos(leads, trans)
	require.Len(t, got, 3)
	assert.Equal(t, "trans_9", got[0].ID)
	assert.Equal(t, "Movimentação Manual", got[0].Description)
	assert.Equal(t, "debit", got[0].Type)

	assert.Equal(t, "lead_1", got[1].ID)
	assert.Equal(t, "paid", got[1].Status)
	assert.True(t, got[1].HasProof)
	assert.Equal(t, "Ana", got[1].PartnerName)
	assert.Equal(t, "Comissão - Venda: ACME", got[1].Description)

	assert.Equal(t, "lead_2", got[2].ID)
	assert.Equal(t, "pending", got[2].Status)
	assert.True(t, got[2].Value.IsZero())
	assert.Equal(t, "Desconhecido", got[2].PartnerName)
}
