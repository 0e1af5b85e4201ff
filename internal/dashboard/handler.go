package dashboard

import (
	"net/http"

	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/financeiro"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	limiteTransacoesRecentes = 5
	limiteParceirosRecentes  = 10
)

// Totalizador consolida o razão financeiro de um escopo.
type Totalizador interface {
	Totais(escopo acesso.Escopo) (financeiro.Resumo, error)
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Escopos    *acesso.Resolvedor
	Financeiro Totalizador
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, fin Totalizador, log *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Escopos:    acesso.NovoResolvedor(db),
		Financeiro: fin,
		Log:        log,
	}
}

type kpisParceiro struct {
	TotalEarnings  decimal.Decimal `json:"totalEarnings"`
	LeadsCount     int64           `json:"leadsCount"`
	ConvertedLeads int64           `json:"convertedLeads"`
	ConversionRate decimal.Decimal `json:"conversionRate"`
	TotalSales     decimal.Decimal `json:"totalSales"`
	TotalReceived  decimal.Decimal `json:"totalReceived"`
	Balance        decimal.Decimal `json:"balance"`
}

type dashboardParceiro struct {
	KPIs               kpisParceiro         `json:"kpis"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

// TaxaDeConversao em percentual com duas casas; zero sem leads.
func TaxaDeConversao(convertidos, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(convertidos).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total)).Round(2)
}

// GET /api/dashboard/partner
func (h *Handler) Partner(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Token ausente")
		return
	}
	escopo, err := h.Escopos.Resolver(ident)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	resumo, err := h.Financeiro.Totais(escopo)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	leads, err := h.Repository.ContarLeads(h.DB, escopo)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	recentes, err := h.Repository.TransacoesRecentes(h.DB, escopo, limiteTransacoesRecentes)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if recentes == nil {
		recentes = []models.Transaction{}
	}

	utils.JSON(w, http.StatusOK, dashboardParceiro{
		KPIs: kpisParceiro{
			TotalEarnings:  resumo.TotalEarnings,
			LeadsCount:     leads.Total,
			ConvertedLeads: leads.Convertidos,
			ConversionRate: TaxaDeConversao(leads.Convertidos, leads.Total),
			TotalSales:     resumo.TotalSales,
			TotalReceived:  resumo.TotalReceived,
			Balance:        resumo.Balance,
		},
		RecentTransactions: recentes,
	})
}

type estatisticasParceiros struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Pending  int64 `json:"pending"`
	Rejected int64 `json:"rejected"`
}

type estatisticasLeads struct {
	Total        int64 `json:"total"`
	Converted    int64 `json:"converted"`
	NotConverted int64 `json:"notConverted"`
}

type estatisticasFinanceiras struct {
	TotalSales       decimal.Decimal `json:"totalSales"`
	TotalCommissions decimal.Decimal `json:"totalCommissions"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	TotalPayable     decimal.Decimal `json:"totalPayable"`
}

type dashboardAdmin struct {
	PartnerStats    estatisticasParceiros   `json:"partnerStats"`
	LeadStats       estatisticasLeads       `json:"leadStats"`
	PartnersByState []ParceirosPorUF        `json:"partnersByState"`
	FinancialStats  estatisticasFinanceiras `json:"financialStats"`
	RecentPartners  []models.Partner        `json:"recentPartners"`
}

// GET /api/dashboard/admin
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	todos := acesso.Escopo{Todos: true}

	porStatus, err := h.Repository.ContarParceirosPorStatus(h.DB)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	leads, err := h.Repository.ContarLeads(h.DB, todos)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	porUF, err := h.Repository.ParceirosPorUF(h.DB)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	resumo, err := h.Financeiro.Totais(todos)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	recentes, err := h.Repository.ParceirosRecentes(h.DB, limiteParceirosRecentes)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if porUF == nil {
		porUF = []ParceirosPorUF{}
	}
	if recentes == nil {
		recentes = []models.Partner{}
	}

	var total int64
	for _, n := range porStatus {
		total += n
	}

	utils.JSON(w, http.StatusOK, dashboardAdmin{
		PartnerStats: estatisticasParceiros{
			Total:    total,
			Approved: porStatus[models.PartnerApproved],
			Pending:  porStatus[models.PartnerPending],
			Rejected: porStatus[models.PartnerRejected],
		},
		LeadStats: estatisticasLeads{
			Total:        leads.Total,
			Converted:    leads.Convertidos,
			NotConverted: leads.Total - leads.Convertidos,
		},
		PartnersByState: porUF,
		FinancialStats: estatisticasFinanceiras{
			TotalSales:       resumo.TotalSales,
			TotalCommissions: resumo.TotalEarnings,
			TotalPaid:        resumo.TotalReceived,
			TotalPayable:     resumo.Balance,
		},
		RecentPartners: recentes,
	})
}
