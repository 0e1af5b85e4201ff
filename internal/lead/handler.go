package lead

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/notificacao"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notificador recebe os eventos de lead que geram mensagens externas.
type Notificador interface {
	LeadCriado(ctx context.Context, l models.Lead, p models.Partner) error
	VendaFechada(ctx context.Context, l models.Lead, p models.Partner) error
}

// Arquivador guarda cópia dos comprovantes fora do banco.
type Arquivador interface {
	Enabled() bool
	Arquivar(ctx context.Context, leadID uint, dataURL string) (string, error)
}

type Handler struct {
	DB           *gorm.DB
	Repository   Repository
	Escopos      *acesso.Resolvedor
	Notificador  Notificador
	Despachante  *notificacao.Despachante
	Comprovantes Arquivador
	Log          *zap.Logger
	Local        *time.Location
	Agora        func() time.Time
}

func NewHandler(db *gorm.DB, n Notificador, arq Arquivador, d *notificacao.Despachante, log *zap.Logger, loc *time.Location) *Handler {
	return &Handler{
		DB:           db,
		Repository:   NewRepository(),
		Escopos:      acesso.NovoResolvedor(db),
		Notificador:  n,
		Despachante:  d,
		Comprovantes: arq,
		Log:          log,
		Local:        loc,
		Agora:        time.Now,
	}
}

func (h *Handler) cotaDoMes() *Cota {
	inicio, fim := MesCivil(h.Agora(), h.Local)
	return &Cota{Inicio: inicio, Fim: fim, Limite: LimiteMensalSemAutorizacao}
}

func identidade(r *http.Request) (auth.Identidade, error) {
	id, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		return id, utils.NaoAutenticado("Token ausente")
	}
	return id, nil
}

// leadNoEscopo carrega o lead e confere se quem pede pode vê-lo.
func (h *Handler) leadNoEscopo(r *http.Request, id uint) (*models.Lead, auth.Identidade, error) {
	ident, err := identidade(r)
	if err != nil {
		return nil, ident, err
	}
	l, err := h.Repository.BuscarPorID(h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ident, utils.NaoEncontrado("Lead não encontrado.")
	}
	if err != nil {
		return nil, ident, err
	}
	escopo, err := h.Escopos.Resolver(ident)
	if err != nil {
		return nil, ident, err
	}
	if !escopo.Permite(l.PartnerID) {
		return nil, ident, utils.AcessoNegado()
	}
	return l, ident, nil
}

// GET /api/leads
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ident, err := identidade(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	escopo, err := h.Escopos.Resolver(ident)
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
		utils.JSON(w, http.StatusOK, []models.Lead{})
		return
	}

	inicio, fim, err := utils.IntervaloDeDatas(q.Get("startDate"), q.Get("endDate"), h.Local)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	leads, err := h.Repository.Listar(h.DB, Filtro{Escopo: escopo, Inicio: inicio, Fim: fim})
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	utils.JSON(w, http.StatusOK, leads)
}

// parceiroDoNovoLead decide a qual parceiro o lead pertence.
func (h *Handler) parceiroDoNovoLead(ident auth.Identidade, pedido *uint) (uint, error) {
	switch ident.Role {
	case models.RolePartner:
		escopo, err := h.Escopos.Resolver(ident)
		if err != nil {
			var appErr *utils.ErroApp
			if errors.As(err, &appErr) && appErr.Status == http.StatusNotFound {
				return 0, utils.NaoEncontrado("Parceiro não encontrado para este usuário.")
			}
			return 0, err
		}
		return escopo.PartnerIDs[0], nil

	case models.RoleConsultor:
		if pedido == nil {
			return 0, utils.Validacao("PartnerId é obrigatório.")
		}
		escopo, err := h.Escopos.Resolver(ident)
		if err != nil {
			return 0, err
		}
		if !escopo.Permite(*pedido) {
			return 0, utils.AcessoNegado()
		}
		return *pedido, nil

	case models.RoleAdmin:
		if pedido != nil {
			p, err := h.Repository.BuscarParceiro(h.DB, *pedido)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, utils.NaoEncontrado("Parceiro não encontrado.")
			}
			if err != nil {
				return 0, err
			}
			return p.ID, nil
		}
		p, err := h.Repository.GarantirParceiroDoUsuario(h.DB, ident.UserID)
		if err != nil {
			return 0, err
		}
		return p.ID, nil
	}
	return 0, utils.AcessoNegado()
}

// POST /api/leads
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ident, err := identidade(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	var req createRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.JSONMensagem(w, http.StatusBadRequest, "Nome é obrigatório.")
		return
	}
	tipo, err := tipoValido(req.Type)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	status, err := statusInicial(req.Status)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	valor := decimal.Zero
	if req.Value != nil {
		if req.Value.IsNegative() {
			utils.JSONMensagem(w, http.StatusBadRequest, "Valor não pode ser negativo.")
			return
		}
		valor = req.Value.Round(2)
	}
	speak := true
	if req.SpeakOnBehalf != nil {
		speak = *req.SpeakOnBehalf
	}

	partnerID, err := h.parceiroDoNovoLead(ident, req.PartnerID)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	l := models.Lead{
		PartnerID:         partnerID,
		Name:              strings.TrimSpace(req.Name),
		Email:             req.Email,
		Phone:             req.Phone,
		Company:           req.Company,
		Type:              tipo,
		Document:          req.Document,
		Value:             valor,
		Status:            status,
		Observation:       req.Observation,
		NumberOfEmployees: req.NumberOfEmployees,
		SpeakOnBehalf:     speak,
	}

	var cota *Cota
	if ident.Role == models.RolePartner && !speak {
		cota = h.cotaDoMes()
	}
	if err := h.Repository.Criar(h.DB, &l, cota); err != nil {
		if errors.Is(err, ErrCotaExcedida) {
			utils.JSONMensagem(w, http.StatusBadRequest, msgCotaExcedida)
			return
		}
		utils.EscreverErro(w, h.Log, err)
		return
	}

	h.notificar("n8n", l.PartnerID, func(ctx context.Context, p models.Partner) error {
		return h.Notificador.LeadCriado(ctx, l, p)
	})
	utils.JSON(w, http.StatusCreated, l)
}

// PUT /api/leads/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	l, ident, err := h.leadNoEscopo(r, id)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	var req updateRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if req.mexeEmVenda() && !acesso.Permitido(ident.Role, acesso.Comissoes, acesso.Escrever) {
		utils.JSONMensagem(w, http.StatusForbidden, "Acesso negado.")
		return
	}

	var cota *Cota
	if ident.Role == models.RolePartner && req.SpeakOnBehalf != nil && !*req.SpeakOnBehalf && l.SpeakOnBehalf {
		cota = h.cotaDoMes()
	}

	provaAnterior := l.CommissionProof
	if err := aplicarAtualizacao(l, req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if req.CommissionProof != nil && l.CommissionProof != nil && !mesmaString(provaAnterior, l.CommissionProof) {
		h.arquivarComprovante(r.Context(), l)
	}

	if err := h.Repository.Salvar(h.DB, l, cota); err != nil {
		if errors.Is(err, ErrCotaExcedida) {
			utils.JSONMensagem(w, http.StatusBadRequest, msgCotaExcedida)
			return
		}
		utils.EscreverErro(w, h.Log, err)
		return
	}
	l.HasProof = l.CommissionProof != nil

	if req.SaleClosed != nil && *req.SaleClosed {
		fechado := *l
		h.notificar("whatsapp", l.PartnerID, func(ctx context.Context, p models.Partner) error {
			return h.Notificador.VendaFechada(ctx, fechado, p)
		})
	}
	utils.JSON(w, http.StatusOK, l)
}

// DELETE /api/leads/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if _, _, err := h.leadNoEscopo(r, id); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.Deletar(h.DB, id); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mesmaString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// arquivarComprovante não bloqueia a atualização se o S3 falhar.
func (h *Handler) arquivarComprovante(ctx context.Context, l *models.Lead) {
	if h.Comprovantes == nil || !h.Comprovantes.Enabled() {
		return
	}
	key, err := h.Comprovantes.Arquivar(ctx, l.ID, *l.CommissionProof)
	if err != nil {
		h.Log.Warn("falha ao arquivar comprovante", zap.Uint("lead_id", l.ID), zap.Error(err))
		return
	}
	l.ProofObjectKey = &key
}

// notificar carrega o parceiro e envia fora do ciclo da requisição.
func (h *Handler) notificar(canal string, partnerID uint, fn func(context.Context, models.Partner) error) {
	if h.Notificador == nil || h.Despachante == nil {
		return
	}
	h.Despachante.Disparar(canal, func(ctx context.Context) error {
		p, err := h.Repository.BuscarParceiro(h.DB, partnerID)
		if err != nil {
			return err
		}
		return fn(ctx, *p)
	})
}
