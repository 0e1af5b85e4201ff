package financeiro

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeEscopos struct{}

// usuário 10 é o parceiro 100; consultor 20 atende o parceiro 100.
func (fakeEscopos) PartnerIDDoUsuario(_ *gorm.DB, userID uint) (uint, error) {
	switch userID {
	case 10:
		return 100, nil
	case 11:
		return 101, nil
	}
	return 0, gorm.ErrRecordNotFound
}

func (fakeEscopos) PartnerIDsDoConsultor(_ *gorm.DB, consultorID uint) ([]uint, error) {
	if consultorID == 20 {
		return []uint{100}, nil
	}
	return nil, nil
}

type fakeRepo struct {
	leads  map[uint]*models.Lead
	trans  map[uint]*models.Transaction
	nextID uint
}

func (f *fakeRepo) Lancamentos(_ *gorm.DB, escopo acesso.Escopo) ([]Lancamento, error) {
	var out []Lancamento
	for _, l := range f.leads {
		if !l.SaleClosed || !escopo.Permite(l.PartnerID) {
			continue
		}
		lc := Lancamento{Tipo: LancamentoComissao, Pago: l.PaymentStatus != nil && *l.PaymentStatus == models.PaymentMade}
		if l.CommissionValue != nil {
			lc.Valor = *l.CommissionValue
		}
		if l.SaleValue != nil {
			lc.Venda = *l.SaleValue
		}
		out = append(out, lc)
	}
	for _, t := range f.trans {
		if !escopo.Permite(t.PartnerID) {
			continue
		}
		tipo := LancamentoCredito
		if t.Type == models.TransactionDebit {
			tipo = LancamentoDebito
		}
		out = append(out, Lancamento{Tipo: tipo, Valor: t.Amount})
	}
	return out, nil
}

func (f *fakeRepo) ComissoesFechadas(_ *gorm.DB, filtro Filtro) ([]models.Lead, error) {
	var out []models.Lead
	for _, l := range f.leads {
		if l.SaleClosed && filtro.Escopo.Permite(l.PartnerID) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeRepo) Transacoes(_ *gorm.DB, filtro Filtro) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range f.trans {
		if filtro.Escopo.Permite(t.PartnerID) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) BuscarComprovante(_ *gorm.DB, leadID uint) (*Comprovante, error) {
	l, ok := f.leads[leadID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &Comprovante{LeadID: l.ID, PartnerID: l.PartnerID, Proof: l.CommissionProof}, nil
}

func (f *fakeRepo) BuscarParceiro(_ *gorm.DB, id uint) (*models.Partner, error) {
	if id != 100 && id != 101 {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Partner{ID: id}, nil
}

func (f *fakeRepo) BuscarLead(_ *gorm.DB, id uint) (*models.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *l
	return &c, nil
}

func (f *fakeRepo) CriarTransacao(_ *gorm.DB, t *models.Transaction) error {
	f.nextID++
	t.ID = f.nextID
	c := *t
	f.trans[t.ID] = &c
	return nil
}

func (f *fakeRepo) DeletarTransacao(_ *gorm.DB, id uint) (int64, error) {
	if _, ok := f.trans[id]; !ok {
		return 0, nil
	}
	delete(f.trans, id)
	return 1, nil
}

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func novoCenario() (*Handler, *fakeRepo) {
	pago := models.PaymentMade
	prova := "data:application/pdf;base64,AAAA"
	repo := &fakeRepo{
		leads: map[uint]*models.Lead{
			1: {ID: 1, PartnerID: 100, Name: "ACME", Status: models.LeadConverted, SaleClosed: true,
				SaleValue: dec("1000"), CommissionPercentage: dec("10"), CommissionValue: dec("100"),
				PaymentStatus: &pago, CommissionProof: &prova},
			2: {ID: 2, PartnerID: 100, Name: "Beta", Status: models.LeadConverted, SaleClosed: true,
				SaleValue: dec("500"), CommissionValue: dec("50")},
			3: {ID: 3, PartnerID: 101, Name: "Gama", Status: models.LeadNew},
		},
		trans:  map[uint]*models.Transaction{},
		nextID: 50,
	}
	h := &Handler{
		Repository: repo,
		Escopos:    &acesso.Resolvedor{Repository: fakeEscopos{}},
		Log:        zap.NewNop(),
		Local:      time.UTC,
		Agora:      func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) },
	}
	return h, repo
}

func request(t *testing.T, method string, id auth.Identidade, vars map[string]string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, "/api/finance", &buf)
	r = r.WithContext(auth.ComIdentidade(r.Context(), id))
	if vars != nil {
		r = mux.SetURLVars(r, vars)
	}
	return r
}

var (
	admin     = auth.Identidade{UserID: 1, Role: models.RoleAdmin}
	parceiroA = auth.Identidade{UserID: 10, Role: models.RolePartner}
	parceiroB = auth.Identidade{UserID: 11, Role: models.RolePartner}
	consultor = auth.Identidade{UserID: 21, Role: models.RoleConsultor}
)

func TestProof(t *testing.T) {
	h, _ := novoCenario()

	cases := []struct {
		nome   string
		ident  auth.Identidade
		id     string
		status int
	}{
		{"dono", parceiroA, "1", http.StatusOK},
		{"admin", admin, "1", http.StatusOK},
		{"outro parceiro", parceiroB, "1", http.StatusForbidden},
		{"consultor sem carteira", consultor, "1", http.StatusForbidden},
		{"sem comprovante", parceiroA, "2", http.StatusNotFound},
		{"lead inexistente", admin, "99", http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.nome, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Proof(rr, request(t, http.MethodGet, c.ident, map[string]string{"id": c.id}, nil))
			assert.Equal(t, c.status, rr.Code)
		})
	}
}

func TestMovementsEscopo(t *testing.T) {
	h, repo := novoCenario()
	repo.trans[7] = &models.Transaction{ID: 7, PartnerID: 101, Type: models.TransactionCredit, Amount: decimal.NewFromInt(5)}

	list := func(id auth.Identidade) []Movimento {
		rr := httptest.NewRecorder()
		h.Movements(rr, request(t, http.MethodGet, id, nil, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var out []Movimento
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		return out
	}

	assert.Len(t, list(parceiroA), 2)
	assert.Len(t, list(parceiroB), 1)
	assert.Len(t, list(admin), 3)
	assert.Empty(t, list(consultor))
}

func TestSummary(t *testing.T) {
	h, _ := novoCenario()

	rr := httptest.NewRecorder()
	h.Summary(rr, request(t, http.MethodGet, parceiroA, nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var r Resumo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &r))
	assert.True(t, decimal.NewFromInt(150).Equal(r.TotalEarnings))
	assert.True(t, decimal.NewFromInt(100).Equal(r.TotalReceived))
	assert.True(t, decimal.NewFromInt(50).Equal(r.Balance))
	assert.True(t, decimal.NewFromInt(1500).Equal(r.TotalSales))
}

func TestCreateTransaction(t *testing.T) {
	h, repo := novoCenario()

	post := func(body map[string]any) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.CreateTransaction(rr, request(t, http.MethodPost, admin, nil, body))
		return rr
	}

	assert.Equal(t, http.StatusBadRequest, post(map[string]any{"partnerId": 100, "type": "bonus", "amount": 10}).Code)
	assert.Equal(t, http.StatusBadRequest, post(map[string]any{"partnerId": 100, "type": "debit", "amount": 0}).Code)
	assert.Equal(t, http.StatusNotFound, post(map[string]any{"partnerId": 555, "type": "debit", "amount": 10}).Code)

	rr := post(map[string]any{"partnerId": 100, "type": "debit", "amount": 100, "leadId": 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "já consta como paga")

	assert.Equal(t, http.StatusBadRequest, post(map[string]any{"partnerId": 101, "type": "debit", "amount": 10, "leadId": 2}).Code)

	rr = post(map[string]any{"partnerId": 100, "type": "debit", "amount": 50, "leadId": 2, "date": "2024-05-31"})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, repo.trans, 1)

	// débito quitando o lead 2 zera o saldo
	resumo, err := h.Totais(acesso.Escopo{PartnerIDs: []uint{100}})
	require.NoError(t, err)
	assert.True(t, resumo.Balance.IsZero(), resumo.Balance.String())

	rr = httptest.NewRecorder()
	h.DeleteTransaction(rr, request(t, http.MethodDelete, admin, map[string]string{"id": "51"}, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.DeleteTransaction(rr, request(t, http.MethodDelete, admin, map[string]string{"id": "51"}, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
