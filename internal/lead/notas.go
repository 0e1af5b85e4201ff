package lead

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// GET /api/leads/{id}/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if _, _, err := h.leadNoEscopo(r, id); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	notas, err := h.Repository.ListarNotas(h.DB, id)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if notas == nil {
		notas = []models.LeadNote{}
	}
	utils.JSON(w, http.StatusOK, notas)
}

// POST /api/leads/{id}/notes
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	_, ident, err := h.leadNoEscopo(r, id)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	var req noteRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		utils.JSONMensagem(w, http.StatusBadRequest, "Conteúdo da nota é obrigatório.")
		return
	}

	autor := ident.UserID
	n := models.LeadNote{LeadID: id, UserID: &autor, Content: strings.TrimSpace(req.Content)}
	if err := h.Repository.CriarNota(h.DB, &n); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, n)
}

// GET /api/leads/{id}/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if _, _, err := h.leadNoEscopo(r, id); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	tarefas, err := h.Repository.ListarTarefas(h.DB, id)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if tarefas == nil {
		tarefas = []models.LeadTask{}
	}
	utils.JSON(w, http.StatusOK, tarefas)
}

// POST /api/leads/{id}/tasks
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ID(mux.Vars(r))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	_, ident, err := h.leadNoEscopo(r, id)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	var req taskRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		utils.JSONMensagem(w, http.StatusBadRequest, "Título da tarefa é obrigatório.")
		return
	}

	autor := ident.UserID
	t := models.LeadTask{LeadID: id, UserID: &autor, Title: strings.TrimSpace(*req.Title)}
	if err := aplicarTarefa(&t, req, h.Local); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.CriarTarefa(h.DB, &t); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusCreated, t)
}

// PATCH /api/leads/{id}/tasks/{taskId}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.tarefaDaRota(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	var req taskRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			utils.JSONMensagem(w, http.StatusBadRequest, "Título da tarefa é obrigatório.")
			return
		}
		t.Title = strings.TrimSpace(*req.Title)
	}
	if err := aplicarTarefa(t, req, h.Local); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.SalvarTarefa(h.DB, t); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, t)
}

// DELETE /api/leads/{id}/tasks/{taskId}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.tarefaDaRota(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := h.Repository.DeletarTarefa(h.DB, t.ID); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tarefaDaRota(r *http.Request) (*models.LeadTask, error) {
	vars := mux.Vars(r)
	leadID, err := utils.ID(vars)
	if err != nil {
		return nil, err
	}
	taskID, err := utils.IDDaRota(vars, "taskId")
	if err != nil {
		return nil, err
	}
	if _, _, err := h.leadNoEscopo(r, leadID); err != nil {
		return nil, err
	}
	t, err := h.Repository.BuscarTarefa(h.DB, leadID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NaoEncontrado("Tarefa não encontrada.")
	}
	return t, err
}

func aplicarTarefa(t *models.LeadTask, req taskRequest, loc *time.Location) error {
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Duration != nil {
		t.Duration = *req.Duration
	}
	if req.Done != nil {
		t.Done = *req.Done
	}
	if req.DueDate != nil {
		d, err := parseDueDate(*req.DueDate, loc)
		if err != nil {
			return err
		}
		t.DueDate = d
	}
	return nil
}
