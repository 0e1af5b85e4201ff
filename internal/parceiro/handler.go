package parceiro

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/notificacao"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tamanhoSenhaTemporaria = 8

// Notificador avisa o parceiro do resultado da análise.
type Notificador interface {
	ParceiroAprovado(ctx context.Context, p models.Partner, senha string) error
	ParceiroReprovado(ctx context.Context, p models.Partner, motivo string) error
}

type Handler struct {
	DB          *gorm.DB
	Repository  Repository
	Notificador Notificador
	Despachante *notificacao.Despachante
	Log         *zap.Logger
	Local       *time.Location
}

func NewHandler(db *gorm.DB, n Notificador, d *notificacao.Despachante, log *zap.Logger, loc *time.Location) *Handler {
	return &Handler{
		DB:          db,
		Repository:  NewRepository(),
		Notificador: n,
		Despachante: d,
		Log:         log,
		Local:       loc,
	}
}

type approveRequest struct {
	ConsultantID *uint `json:"consultantId"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type profileRequest struct {
	PixKey     *string `json:"pixKey"`
	PixKeyType *string `json:"pixKeyType"`
	Phone      *string `json:"phone"`
	City       *string `json:"city"`
	UF         *string `json:"uf"`
}

type consultorResumo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GET /api/partners
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Token ausente")
		return
	}

	q := r.URL.Query()
	f := Filtro{}
	if s := strings.TrimSpace(q.Get("status")); s != "" && s != "all" {
		f.Status = s
	}
	if ident.Role == models.RoleConsultor {
		f.ConsultorID = &ident.UserID
	}
	inicio, fim, err := utils.IntervaloDeDatas(q.Get("startDate"), q.Get("endDate"), h.Local)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	f.Inicio, f.Fim = inicio, fim

	partners, err := h.Repository.Listar(h.DB, f)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if partners == nil {
		partners = []models.Partner{}
	}
	utils.JSON(w, http.StatusOK, partners)
}

// GET /api/partners/consultants
func (h *Handler) ListConsultants(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repository.ListarConsultores(h.DB)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	out := make([]consultorResumo, 0, len(users))
	for _, u := range users {
		out = append(out, consultorResumo{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	utils.JSON(w, http.StatusOK, out)
}

func (h *Handler) parceiroDaRota(r *http.Request) (*models.Partner, error) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		return nil, err
	}
	p, err := h.Repository.BuscarPorID(h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NaoEncontrado("Parceiro não encontrado")
	}
	return p, err
}

func (h *Handler) validarConsultor(id uint) error {
	u, err := h.Repository.BuscarUsuario(h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && u.Role != models.RoleConsultor) {
		return utils.Validacao("Consultor inválido")
	}
	return err
}

// PUT /api/partners/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Token ausente")
		return
	}
	var req approveRequest
	if err := utils.LerJSONOpcional(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	p, err := h.parceiroDaRota(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if p.Status == models.PartnerApproved {
		utils.JSONMensagem(w, http.StatusBadRequest, "Parceiro já aprovado")
		return
	}
	if req.ConsultantID != nil && *req.ConsultantID != 0 {
		// consultor só atribui a si mesmo
		if ident.Role == models.RoleConsultor && *req.ConsultantID != ident.UserID {
			utils.JSONMensagem(w, http.StatusForbidden, "Acesso negado.")
			return
		}
		if err := h.validarConsultor(*req.ConsultantID); err != nil {
			utils.EscreverErro(w, h.Log, err)
			return
		}
	}

	senha, err := utils.GerarSenhaTemporaria(tamanhoSenhaTemporaria)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	hash, err := utils.HashSenha(senha)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	p.Status = models.PartnerApproved
	p.RejectionReason = nil
	switch {
	case req.ConsultantID != nil && *req.ConsultantID != 0:
		p.ConsultantID = req.ConsultantID
	case ident.Role == models.RoleConsultor && p.ConsultantID == nil:
		p.ConsultantID = &ident.UserID
	}

	if err := h.Repository.Aprovar(h.DB, p, hash); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	aprovado := *p
	h.notificar(func(ctx context.Context) error {
		return h.Notificador.ParceiroAprovado(ctx, aprovado, senha)
	})
	utils.JSON(w, http.StatusOK, map[string]string{
		"message":  "Parceiro aprovado com sucesso",
		"password": senha,
	})
}

// PUT /api/partners/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := utils.LerJSONOpcional(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	motivo := strings.TrimSpace(req.Reason)
	if motivo == "" {
		utils.JSONMensagem(w, http.StatusBadRequest, "Motivo da reprovação é obrigatório")
		return
	}
	p, err := h.parceiroDaRota(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	p.Status = models.PartnerRejected
	p.RejectionReason = &motivo
	if err := h.Repository.Salvar(h.DB, p); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	reprovado := *p
	h.notificar(func(ctx context.Context) error {
		return h.Notificador.ParceiroReprovado(ctx, reprovado, motivo)
	})
	utils.JSONMensagem(w, http.StatusOK, "Parceiro reprovado com sucesso")
}

func (h *Handler) perfil(r *http.Request) (*models.Partner, error) {
	ident, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		return nil, utils.NaoAutenticado("Token ausente")
	}
	p, err := h.Repository.BuscarPorUsuario(h.DB, ident.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NaoEncontrado("Perfil de parceiro não encontrado")
	}
	return p, err
}

// GET /api/partners/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.perfil(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

// PUT /api/partners/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	p, err := h.perfil(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	if req.PixKeyType != nil {
		tipo := strings.ToLower(strings.TrimSpace(*req.PixKeyType))
		switch {
		case tipo == "":
			p.PixKeyType = nil
		case models.PixKeyTypeValido(tipo):
			p.PixKeyType = &tipo
		default:
			utils.JSONMensagem(w, http.StatusBadRequest, "Tipo de chave PIX inválido")
			return
		}
	}
	if req.PixKey != nil {
		chave := strings.TrimSpace(*req.PixKey)
		if chave == "" {
			p.PixKey = nil
		} else {
			p.PixKey = &chave
		}
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.City != nil {
		p.City = strings.TrimSpace(*req.City)
	}
	if req.UF != nil {
		p.UF = strings.ToUpper(strings.TrimSpace(*req.UF))
	}

	if err := h.Repository.Salvar(h.DB, p); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

func (h *Handler) notificar(fn func(ctx context.Context) error) {
	if h.Notificador == nil || h.Despachante == nil {
		return
	}
	h.Despachante.Disparar("whatsapp", fn)
}
