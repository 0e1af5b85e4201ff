package parceiro

import (
	"net/http"
	"strings"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
)

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	UF    string `json:"uf"`
	City  string `json:"city"`
}

// POST /api/public/partners/register
// A senha real só é definida na aprovação.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.LerJSON(r, &req); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || req.Email == "" {
		utils.JSONMensagem(w, http.StatusBadRequest, "Nome e e-mail são obrigatórios")
		return
	}

	existe, err := h.Repository.EmailCadastrado(h.DB, req.Email)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	if existe {
		utils.JSONMensagem(w, http.StatusBadRequest, "E-mail já cadastrado")
		return
	}

	provisoria, err := utils.GerarSenhaTemporaria(16)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	hash, err := utils.HashSenha(provisoria)
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	u := models.User{Name: strings.TrimSpace(req.Name), Email: req.Email, Password: hash, Role: models.RolePartner}
	p := models.Partner{
		Status: models.PartnerPending,
		Phone:  strings.TrimSpace(req.Phone),
		UF:     strings.ToUpper(strings.TrimSpace(req.UF)),
		City:   strings.TrimSpace(req.City),
	}
	if err := h.Repository.Registrar(h.DB, &u, &p); err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}
	utils.JSONMensagem(w, http.StatusCreated, "Cadastro realizado com sucesso! Aguarde contato.")
}
