package financeiro

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Escopos    *acesso.Resolvedor
	Log        *zap.Logger
	Local      *time.Location
	Agora      func() time.Time
}

func NewHandler(db *gorm.DB, log *zap.Logger, loc *time.Location) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Escopos:    acesso.NovoResolvedor(db),
		Log:        log,
		Local:      loc,
		Agora:      time.Now,
	}
}

// Totais consolida o razão visível para o escopo.
func (h *Handler) Totais(escopo acesso.Escopo) (Resumo, error) {
	if escopo.Vazio() {
		return Consolidar(nil), nil
	}
	lancamentos, err := h.Repository.Lancamentos(h.DB, escopo)
	if err != nil {
		return Resumo{}, err
	}
	return Consolidar(lancamentos), nil
}

func (h *Handler) escopo(r *http.Request) (acesso.Escopo, error) {
	ident, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		return acesso.Escopo{}, utils.NaoAutenticado("Token ausente")
	}
	return h.Escopos.Resolver(ident)
}

// GET /api/finance/movements
func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	escopo, err := h.escopo(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	q := r.URL.Query()
	partnerID, err := utils.UintOpcional(q.Get("partnerId"))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	escopo = escopo.Restringir(partnerID)
	if escopo.Vazio() {
		utils.JSON(w, http.StatusOK, []Movimento{})
		return
	}
	inicio, fim, err := utils.IntervaloDeDatas(q.Get("startDate"), q.Get("endDate"), h.Local)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	f := Filtro{Escopo: escopo, Inicio: inicio, Fim: fim}
	comissoes, err := h.Repository.ComissoesFechadas(h.DB, f)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	transacoes, err := h.Repository.Transacoes(h.DB, f)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, Movimentos(comissoes, transacoes))
}

// GET /api/finance/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	escopo, err := h.escopo(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	partnerID, err := utils.UintOpcional(r.URL.Query().Get("partnerId"))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	resumo, err := h.Totais(escopo.Restringir(partnerID))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, resumo)
}

// GET /api/finance/proof/{id}
func (h *Handler) Proof(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	escopo, err := h.escopo(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	c, err := h.Repository.BuscarComprovante(h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.JSONMensagem(w, http.StatusNotFound, "Lead não encontrado")
		return
	}
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if !escopo.Permite(c.PartnerID) {
		utils.EscreverErro(w, h.Log, utils.AcessoNegado())
		return
	}
	if c.Proof == nil || *c.Proof == "" {
		utils.JSONMensagem(w, http.StatusNotFound, "Comprovante não encontrado")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"proof": *c.Proof})
}

type transactionRequest struct {
	PartnerID   uint             `json:"partnerId"`
	LeadID      *uint            `json:"leadId"`
	Type        string           `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
}

func (h *Handler) dataDoLancamento(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return h.Agora(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	loc := h.Local
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, utils.Validacao("Data inválida")
	}
	return t, nil
}

// POST /api/finance/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	tipo := models.TransactionType(strings.ToLower(strings.TrimSpace(req.Type)))
	if tipo != models.TransactionCredit && tipo != models.TransactionDebit {
		utils.JSONMensagem(w, http.StatusBadRequest, "Tipo deve ser credit ou debit")
		return
	}
	if req.Amount == nil || !req.Amount.IsPositive() {
		utils.JSONMensagem(w, http.StatusBadRequest, "Valor deve ser maior que zero")
		return
	}
	if req.PartnerID == 0 {
		utils.JSONMensagem(w, http.StatusBadRequest, "PartnerId é obrigatório.")
		return
	}
	data, err := h.dataDoLancamento(req.Date)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	if _, err := h.Repository.BuscarParceiro(h.DB, req.PartnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONMensagem(w, http.StatusNotFound, "Parceiro não encontrado.")
			return
		}
		utils.EscreverErro(w, h.Log, err)
		return
	}

	if req.LeadID != nil {
		l, err := h.Repository.BuscarLead(h.DB, *req.LeadID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONMensagem(w, http.StatusBadRequest, "Lead informado não existe.")
			return
		}
		if err != nil {
			utils.EscreverErro(w, h.Log, err)
			return
		}
		if l.PartnerID != req.PartnerID {
			utils.JSONMensagem(w, http.StatusBadRequest, "Lead não pertence ao parceiro informado.")
			return
		}
		// a comissão paga já conta como recebida; o débito seria contado duas vezes
		if tipo == models.TransactionDebit && l.SaleClosed && l.PaymentStatus != nil && *l.PaymentStatus == models.PaymentMade {
			utils.JSONMensagem(w, http.StatusBadRequest, "A comissão deste lead já consta como paga.")
			return
		}
	}

	t := models.Transaction{
		PartnerID:   req.PartnerID,
		LeadID:      req.LeadID,
		Type:        tipo,
		Amount:      req.Amount.Round(2),
		Description: strings.TrimSpace(req.Description),
		Date:        data,
	}
	if err := h.Repository.CriarTransacao(h.DB, &t); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, t)
}

// DELETE /api/finance/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	n, err := h.Repository.DeletarTransacao(h.DB, id)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if n == 0 {
		utils.JSONMensagem(w, http.StatusNotFound, "Transação não encontrada")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
