package acesso

import (
	"errors"

	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"gorm.io/gorm"
)

// Escopo é o conjunto de parceiros visíveis para quem fez a requisição.
type Escopo struct {
	Todos      bool
	PartnerIDs []uint
}

func (e Escopo) Vazio() bool { return !e.Todos && len(e.PartnerIDs) == 0 }

func (e Escopo) Permite(partnerID uint) bool {
	if e.Todos {
		return true
	}
	for _, id := range e.PartnerIDs {
		if id == partnerID {
			return true
		}
	}
	return false
}

// Restringir aplica um filtro opcional de parceiro; nunca amplia o escopo.
func (e Escopo) Restringir(partnerID *uint) Escopo {
	if partnerID == nil {
		return e
	}
	if e.Permite(*partnerID) {
		return Escopo{PartnerIDs: []uint{*partnerID}}
	}
	return Escopo{}
}

// Aplicar filtra a query pela coluna de parceiro informada.
func (e Escopo) Aplicar(q *gorm.DB, coluna string) *gorm.DB {
	if e.Todos {
		return q
	}
	if len(e.PartnerIDs) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where(coluna+" IN ?", e.PartnerIDs)
}

type Repository interface {
	PartnerIDDoUsuario(db *gorm.DB, userID uint) (uint, error)
	PartnerIDsDoConsultor(db *gorm.DB, consultorID uint) ([]uint, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) PartnerIDDoUsuario(db *gorm.DB, userID uint) (uint, error) {
	var p models.Partner
	err := db.Select("id").Where("user_id = ?", userID).First(&p).Error
	return p.ID, err
}

func (r *repositoryImpl) PartnerIDsDoConsultor(db *gorm.DB, consultorID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.Partner{}).Where("consultant_id = ?", consultorID).Pluck("id", &ids).Error
	return ids, err
}

// Resolvedor calcula o Escopo de cada requisição.
type Resolvedor struct {
	DB         *gorm.DB
	Repository Repository
}

func NovoResolvedor(db *gorm.DB) *Resolvedor {
	return &Resolvedor{DB: db, Repository: NewRepository()}
}

func (r *Resolvedor) Resolver(id auth.Identidade) (Escopo, error) {
	switch id.Role {
	case models.RoleAdmin:
		return Escopo{Todos: true}, nil
	case models.RoleConsultor:
		ids, err := r.Repository.PartnerIDsDoConsultor(r.DB, id.UserID)
		if err != nil {
			return Escopo{}, err
		}
		return Escopo{PartnerIDs: ids}, nil
	case models.RolePartner:
		pid, err := r.Repository.PartnerIDDoUsuario(r.DB, id.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Escopo{}, utils.NaoEncontrado("Parceiro não encontrado.")
		}
		if err != nil {
			return Escopo{}, err
		}
		return Escopo{PartnerIDs: []uint{pid}}, nil
	}
	return Escopo{}, utils.AcessoNegado()
}
