package usuario

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler é a gestão de contas, restrita a admins pela política de acesso.
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Log: log}
}

type userRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type usuarioResumo struct {
	ID    uint        `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func resumo(u *models.User) usuarioResumo {
	return usuarioResumo{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func texto(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func papel(s *string, padrao models.Role) (models.Role, error) {
	if texto(s) == "" {
		return padrao, nil
	}
	role := models.Role(texto(s))
	if !role.Valid() {
		return "", utils.Validacao("Perfil inválido")
	}
	return role, nil
}

// GET /api/users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	role := models.Role(strings.TrimSpace(r.URL.Query().Get("role")))
	if role != "" && role != "all" && !role.Valid() {
		utils.JSONMensagem(w, http.StatusBadRequest, "Perfil inválido")
		return
	}
	if role == "all" {
		role = ""
	}
	users, err := h.Repository.Listar(h.DB, role)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.JSON(w, http.StatusOK, users)
}

// POST /api/users
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	email := strings.ToLower(texto(req.Email))
	if texto(req.Name) == "" || email == "" || texto(req.Password) == "" {
		utils.JSONMensagem(w, http.StatusBadRequest, "Nome, e-mail e senha são obrigatórios")
		return
	}
	role, err := papel(req.Role, models.RoleAdmin)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	emUso, err := h.Repository.EmailEmUso(h.DB, email, 0)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if emUso {
		utils.JSONMensagem(w, http.StatusBadRequest, "Usuário já existe")
		return
	}

	hash, err := utils.HashSenha(*req.Password)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	u := models.User{Name: texto(req.Name), Email: email, Password: hash, Role: role}
	if err := h.Repository.Criar(h.DB, &u); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]any{
		"message": "Usuário criado com sucesso",
		"user":    resumo(&u),
	})
}

func (h *Handler) usuarioDaRota(r *http.Request) (*models.User, error) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		return nil, err
	}
	u, err := h.Repository.BuscarPorID(h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NaoEncontrado("Usuário não encontrado")
	}
	return u, err
}

// PUT /api/users/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	u, err := h.usuarioDaRota(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	if nome := texto(req.Name); nome != "" {
		u.Name = nome
	}
	if email := strings.ToLower(texto(req.Email)); email != "" && email != u.Email {
		emUso, err := h.Repository.EmailEmUso(h.DB, email, u.ID)
		if err != nil {
			utils.EscreverErro(w, h.Log, err)
			return
		}
		if emUso {
			utils.JSONMensagem(w, http.StatusBadRequest, "E-mail já cadastrado")
			return
		}
		u.Email = email
	}
	role, err := papel(req.Role, u.Role)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	u.Role = role
	if texto(req.Password) != "" {
		hash, err := utils.HashSenha(*req.Password)
		if err != nil {
			utils.EscreverErro(w, h.Log, err)
			return
		}
		u.Password = hash
	}

	if err := h.Repository.Salvar(h.DB, u); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"message": "Usuário atualizado com sucesso",
		"user":    resumo(u),
	})
}

// DELETE /api/users/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		utils.JSONMensagem(w, http.StatusUnauthorized, "Token ausente")
		return
	}
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if id == ident.UserID {
		utils.JSONMensagem(w, http.StatusBadRequest, "Não é possível excluir a própria conta")
		return
	}
	if _, err := h.usuarioDaRota(r); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.Deletar(h.DB, id); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSONMensagem(w, http.StatusOK, "Usuário removido com sucesso")
}
