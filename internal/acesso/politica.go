package acesso

import (
	"net/http"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
)

type Recurso string

const (
	DashboardParceiro Recurso = "dashboard_parceiro"
	DashboardAdmin    Recurso = "dashboard_admin"
	Parceiros         Recurso = "parceiros"
	Perfil            Recurso = "perfil"
	Leads             Recurso = "leads"
	Comissoes         Recurso = "comissoes"
	Financeiro        Recurso = "financeiro"
	Materiais         Recurso = "materiais"
	Usuarios          Recurso = "usuarios"
	Chat              Recurso = "chat"
)

type Acao string

const (
	Ler      Acao = "ler"
	Escrever Acao = "escrever"
	Aprovar  Acao = "aprovar"
)

type permissao struct {
	recurso Recurso
	acao    Acao
}

// politica é a tabela de capacidades por papel.
// Posse de registros (escopo de parceiros) é checada à parte, em Escopo.
var politica = map[models.Role]map[permissao]bool{
	models.RoleAdmin: set(
		permissao{DashboardAdmin, Ler},
		permissao{Parceiros, Ler}, permissao{Parceiros, Aprovar},
		permissao{Perfil, Ler}, permissao{Perfil, Escrever},
		permissao{Leads, Ler}, permissao{Leads, Escrever},
		permissao{Comissoes, Escrever},
		permissao{Financeiro, Ler}, permissao{Financeiro, Escrever},
		permissao{Materiais, Ler}, permissao{Materiais, Escrever},
		permissao{Usuarios, Ler}, permissao{Usuarios, Escrever},
		permissao{Chat, Ler}, permissao{Chat, Escrever},
	),
	models.RoleConsultor: set(
		permissao{Parceiros, Ler}, permissao{Parceiros, Aprovar},
		permissao{Perfil, Ler}, permissao{Perfil, Escrever},
		permissao{Leads, Ler}, permissao{Leads, Escrever},
		permissao{Financeiro, Ler},
		permissao{Materiais, Ler}, permissao{Materiais, Escrever},
		permissao{Chat, Ler}, permissao{Chat, Escrever},
	),
	models.RolePartner: set(
		permissao{DashboardParceiro, Ler},
		permissao{Perfil, Ler}, permissao{Perfil, Escrever},
		permissao{Leads, Ler}, permissao{Leads, Escrever},
		permissao{Financeiro, Ler},
		permissao{Materiais, Ler},
		permissao{Chat, Ler}, permissao{Chat, Escrever},
	),
}

func set(ps ...permissao) map[permissao]bool {
	m := make(map[permissao]bool, len(ps))
	for _, p := range ps {
		m[p] = true
	}
	return m
}

func Permitido(role models.Role, r Recurso, a Acao) bool {
	return politica[role][permissao{r, a}]
}

// Exigir bloqueia com 403 quem não tem a capacidade. Deve rodar depois do
// middleware de autenticação.
func Exigir(r Recurso, a Acao) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id, ok := auth.IdentidadeDe(req.Context())
			if !ok {
				utils.JSONMensagem(w, http.StatusUnauthorized, "Token ausente")
				return
			}
			if !Permitido(id.Role, r, a) {
				utils.JSONMensagem(w, http.StatusForbidden, "Acesso negado.")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
