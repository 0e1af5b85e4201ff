package chat

import (
	"net/http"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	Servico *Servico
	Log     *zap.Logger
}

func NewHandler(s *Servico, log *zap.Logger) *Handler {
	return &Handler{Servico: s, Log: log}
}

func identidade(r *http.Request) (auth.Identidade, error) {
	id, ok := auth.IdentidadeDe(r.Context())
	if !ok {
		return id, utils.NaoAutenticado("Token ausente")
	}
	return id, nil
}

// GET /api/chat/contacts
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	ident, err := identidade(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	contatos, err := h.Servico.Contatos(ident)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, contatos)
}

// GET /api/chat/messages/{contactId}
// Devolve a conversa em ordem cronológica e marca como lidas as mensagens recebidas do contato.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	ident, err := identidade(r)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	contato, err := utils.IDDaRota(mux.Vars(r), "contactId")
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	s := h.Servico
	msgs, err := s.Repository.Conversa(s.DB, ident.UserID, contato)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if err := s.Repository.MarcarLidas(s.DB, contato, ident.UserID); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, msgs)
}
