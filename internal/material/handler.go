package material

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Log: log}
}

type materialRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	URL         *string `json:"url"`
	Content     *string `json:"content"`
	Thumbnail   *string `json:"thumbnail"`
}

// aplicar copia os campos presentes; título e tipo não podem ficar vazios.
func aplicar(m *models.Material, req materialRequest) error {
	if req.Title != nil {
		m.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		m.Type = models.MaterialType(strings.ToLower(strings.TrimSpace(*req.Type)))
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.URL != nil {
		m.URL = strings.TrimSpace(*req.URL)
	}
	if req.Content != nil {
		m.Content = *req.Content
	}
	if req.Thumbnail != nil {
		m.Thumbnail = strings.TrimSpace(*req.Thumbnail)
	}

	if m.Title == "" {
		return utils.Validacao("Título é obrigatório")
	}
	if m.Type == "" {
		return utils.Validacao("Tipo é obrigatório")
	}
	if !m.Type.Valid() {
		return utils.Validacao("Tipo inválido")
	}
	return nil
}

// GET /api/materials
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tipo := models.MaterialType(strings.TrimSpace(r.URL.Query().Get("type")))
	if tipo == "all" {
		tipo = ""
	}
	materiais, err := h.Repository.Listar(h.DB, tipo)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if materiais == nil {
		materiais = []models.Material{}
	}
	utils.JSON(w, http.StatusOK, materiais)
}

// POST /api/materials
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	var m models.Material
	if err := aplicar(&m, req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.Criar(h.DB, &m); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, m)
}

func (h *Handler) materialDaRota(r *http.Request) (*models.Material, error) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		return nil, err
	}
	m, err := h.Repository.BuscarPorID(h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NaoEncontrado("Material não encontrado")
	}
	return m, err
}

// PUT /api/materials/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	m, err := h.materialDaRota(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := aplicar(m, req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.Salvar(h.DB, m); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, m)
}

// DELETE /api/materials/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	m, err := h.materialDaRota(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.Deletar(h.DB, m.ID); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSONMensagem(w, http.StatusOK, "Material excluído com sucesso")
}
