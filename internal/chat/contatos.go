package chat

import (
	"sort"
	"time"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Contato é um usuário com quem se pode conversar, com o resumo da conversa.
type Contato struct {
	ID            uint        `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Role          models.Role `json:"role"`
	UnreadCount   int64       `json:"unreadCount"`
	LastMessage   *string     `json:"lastMessage"`
	LastMessageAt *time.Time  `json:"lastMessageAt"`
}

type ResumoConversa struct {
	ContatoID      uint
	NaoLidas       int64
	UltimaMensagem string
	UltimaEm       time.Time
}

// MesclarContatos junta as listas sem repetir usuários, mantendo a primeira ocorrência.
func MesclarContatos(grupos ...[]models.User) []models.User {
	vistos := map[uint]bool{}
	var out []models.User
	for _, g := range grupos {
		for _, u := range g {
			if u.ID == 0 || vistos[u.ID] {
				continue
			}
			vistos[u.ID] = true
			out = append(out, u)
		}
	}
	return out
}

// MontarContatos aplica os resumos e ordena pela última mensagem, depois pelo nome.
func MontarContatos(users []models.User, resumos map[uint]ResumoConversa) []Contato {
	out := make([]Contato, 0, len(users))
	for _, u := range users {
		c := Contato{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
		if r, ok := resumos[u.ID]; ok {
			c.UnreadCount = r.NaoLidas
			if !r.UltimaEm.IsZero() {
				msg, em := r.UltimaMensagem, r.UltimaEm
				c.LastMessage, c.LastMessageAt = &msg, &em
			}
		}
		out = append(out, c)
	}

	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		}
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// Servico concentra as regras de quem conversa com quem.
type Servico struct {
	DB         *gorm.DB
	Repository Repository
}

func NovoServico(db *gorm.DB) *Servico {
	return &Servico{DB: db, Repository: NewRepository()}
}

// Usuarios devolve os contatos permitidos:
// admin vê todos; consultor vê seus parceiros e os admins;
// parceiro vê o próprio consultor e os admins.
func (s *Servico) Usuarios(ident auth.Identidade) ([]models.User, error) {
	switch ident.Role {
	case models.RoleAdmin:
		return s.Repository.TodosExceto(s.DB, ident.UserID)

	case models.RoleConsultor:
		parceiros, err := s.Repository.UsuariosDoConsultor(s.DB, ident.UserID)
		if err != nil {
			return nil, err
		}
		admins, err := s.Repository.Admins(s.DB)
		if err != nil {
			return nil, err
		}
		return MesclarContatos(parceiros, admins), nil

	case models.RolePartner:
		var consultor []models.User
		c, err := s.Repository.ConsultorDoParceiro(s.DB, ident.UserID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			consultor = append(consultor, *c)
		}
		admins, err := s.Repository.Admins(s.DB)
		if err != nil {
			return nil, err
		}
		return MesclarContatos(consultor, admins), nil
	}
	return nil, nil
}

func (s *Servico) Contatos(ident auth.Identidade) ([]Contato, error) {
	users, err := s.Usuarios(ident)
	if err != nil {
		return nil, err
	}
	resumos, err := s.Repository.Resumos(s.DB, ident.UserID)
	if err != nil {
		return nil, err
	}
	return MontarContatos(users, resumos), nil
}

func (s *Servico) PodeConversar(ident auth.Identidade, destino uint) (bool, error) {
	if destino == 0 || destino == ident.UserID {
		return false, nil
	}
	users, err := s.Usuarios(ident)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.ID == destino {
			return true, nil
		}
	}
	return false, nil
}
