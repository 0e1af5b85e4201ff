package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler atende registro, login e sessão.
type Handler struct {
	DB           *gorm.DB
	Repository   Repository
	Emissor      *Emissor
	Log          *zap.Logger
	RefreshTTL   time.Duration
	CookieSecure bool
	Agora        func() time.Time
}

func NewHandler(db *gorm.DB, emissor *Emissor, log *zap.Logger, refreshTTL time.Duration, cookieSecure bool) *Handler {
	return &Handler{
		DB:           db,
		Repository:   NewRepository(),
		Emissor:      emissor,
		Log:          log,
		RefreshTTL:   refreshTTL,
		CookieSecure: cookieSecure,
		Agora:        time.Now,
	}
}

func (h *Handler) agora() time.Time {
	if h.Agora == nil {
		return time.Now()
	}
	return h.Agora()
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	UF       string `json:"uf"`
	City     string `json:"city"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type usuarioResumo struct {
	ID    uint        `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// POST /api/auth/register
// O cadastro público cria sempre um parceiro pendente; admins e consultores
// são criados pela gestão de usuários.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		utils.JSONMensagem(w, http.StatusBadRequest, "Nome, e-mail e senha são obrigatórios")
		return
	}

	if _, err := h.Repository.BuscarPorEmail(h.DB, req.Email); err == nil {
		utils.JSONMensagem(w, http.StatusBadRequest, "Usuário já existe")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	hash, err := utils.HashSenha(req.Password)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	u := models.User{Name: strings.TrimSpace(req.Name), Email: req.Email, Password: hash, Role: models.RolePartner}
	p := models.Partner{Status: models.PartnerPending, Phone: req.Phone, UF: strings.ToUpper(req.UF), City: req.City}
	if err := h.Repository.CriarComParceiro(h.DB, &u, &p); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]any{
		"message": "Usuário registrado com sucesso",
		"user":    usuarioResumo{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
	})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	u, err := h.Repository.BuscarPorEmail(h.DB, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONMensagem(w, http.StatusUnauthorized, "Credenciais inválidas")
			return
		}
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if !utils.CheckSenha(u.Password, req.Password) {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	token, err := h.emitirTokens(w, *u, "")
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  usuarioResumo{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
	})
}

// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentidadeDe(r.Context())
	if !ok {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Token ausente")
		return
	}
	u, err := h.Repository.BuscarPorID(h.DB, id.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONMensagem(w, http.StatusNotFound, "Usuário não encontrado")
			return
		}
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if u.Role != models.RolePartner {
		u.Partner = nil
	}
	utils.JSON(w, http.StatusOK, u)
}
