package dashboard

import (
	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

type ContagemLeads struct {
	Total       int64
	Convertidos int64
}

type ParceirosPorUF struct {
	UF    string `json:"uf"`
	Count int64  `json:"count"`
}

type Repository interface {
	ContarLeads(db *gorm.DB, escopo acesso.Escopo) (ContagemLeads, error)
	TransacoesRecentes(db *gorm.DB, escopo acesso.Escopo, limite int) ([]models.Transaction, error)
	ContarParceirosPorStatus(db *gorm.DB) (map[models.PartnerStatus]int64, error)
	ParceirosPorUF(db *gorm.DB) ([]ParceirosPorUF, error)
	ParceirosRecentes(db *gorm.DB, limite int) ([]models.Partner, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// semAdmins esconde os perfis "da casa" criados para leads de admins.
func semAdmins(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN users ON users.id = partners.user_id AND users.role <> ?", models.RoleAdmin)
}

func (r *repositoryImpl) ContarLeads(db *gorm.DB, escopo acesso.Escopo) (ContagemLeads, error) {
	var c ContagemLeads
	q := db.Model(&models.Lead{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE status = ?) AS convertidos", models.LeadConverted)
	err := escopo.Aplicar(q, "partner_id").Scan(&c).Error
	return c, err
}

func (r *repositoryImpl) TransacoesRecentes(db *gorm.DB, escopo acesso.Escopo, limite int) ([]models.Transaction, error) {
	var trans []models.Transaction
	q := escopo.Aplicar(db.Model(&models.Transaction{}), "partner_id")
	err := q.Order("date DESC").Limit(limite).Find(&trans).Error
	return trans, err
}

func (r *repositoryImpl) ContarParceirosPorStatus(db *gorm.DB) (map[models.PartnerStatus]int64, error) {
	var linhas []struct {
		Status models.PartnerStatus
		Count  int64
	}
	err := semAdmins(db.Model(&models.Partner{})).
		Select("partners.status AS status, COUNT(*) AS count").
		Group("partners.status").
		Scan(&linhas).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.PartnerStatus]int64, len(linhas))
	for _, l := range linhas {
		out[l.Status] = l.Count
	}
	return out, nil
}

func (r *repositoryImpl) ParceirosPorUF(db *gorm.DB) ([]ParceirosPorUF, error) {
	var out []ParceirosPorUF
	err := semAdmins(db.Model(&models.Partner{})).
		Select("partners.uf AS uf, COUNT(*) AS count").
		Group("partners.uf").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

func (r *repositoryImpl) ParceirosRecentes(db *gorm.DB, limite int) ([]models.Partner, error) {
	var partners []models.Partner
	err := semAdmins(db.Model(&models.Partner{})).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id, name, email") }).
		Order("partners.created_at DESC").
		Limit(limite).
		Find(&partners).Error
	return partners, err
}
