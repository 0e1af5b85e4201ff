package financeiro

import (
	"time"

	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filtro do extrato; as datas são sobre updated_at (comissões) e date (manuais).
type Filtro struct {
	Escopo      acesso.Escopo
	Inicio, Fim *time.Time
}

// Comprovante é o mínimo necessário para servir o arquivo de um lead.
type Comprovante struct {
	LeadID    uint
	PartnerID uint
	Proof     *string
}

type Repository interface {
	Lancamentos(db *gorm.DB, escopo acesso.Escopo) ([]Lancamento, error)
	ComissoesFechadas(db *gorm.DB, f Filtro) ([]models.Lead, error)
	Transacoes(db *gorm.DB, f Filtro) ([]models.Transaction, error)
	BuscarComprovante(db *gorm.DB, leadID uint) (*Comprovante, error)

	BuscarParceiro(db *gorm.DB, id uint) (*models.Partner, error)
	BuscarLead(db *gorm.DB, id uint) (*models.Lead, error)
	CriarTransacao(db *gorm.DB, t *models.Transaction) error
	DeletarTransacao(db *gorm.DB, id uint) (int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

type linhaComissao struct {
	Pago  bool
	Valor decimal.Decimal
	Venda decimal.Decimal
}

type linhaManual struct {
	Tipo              models.TransactionType
	QuitaComissaoPaga bool
	Valor             decimal.Decimal
}

// Lancamentos devolve o razão já agregado por tipo no banco.
func (r *repositoryImpl) Lancamentos(db *gorm.DB, escopo acesso.Escopo) ([]Lancamento, error) {
	var comissoes []linhaComissao
	q := db.Model(&models.Lead{}).
		Select(`COALESCE(payment_status = ?, false) AS pago,
			COALESCE(SUM(commission_value), 0) AS valor,
			COALESCE(SUM(sale_value), 0) AS venda`, models.PaymentMade).
		Where("sale_closed = ?", true).
		Group("1")
	if err := escopo.Aplicar(q, "partner_id").Scan(&comissoes).Error; err != nil {
		return nil, err
	}

	var manuais []linhaManual
	q = db.Table("transactions AS t").
		Select(`t.type AS tipo,
			COALESCE(l.sale_closed AND l.payment_status = ?, false) AS quita_comissao_paga,
			COALESCE(SUM(t.amount), 0) AS valor`, models.PaymentMade).
		Joins("LEFT JOIN leads l ON l.id = t.lead_id").
		Group("1, 2")
	if err := escopo.Aplicar(q, "t.partner_id").Scan(&manuais).Error; err != nil {
		return nil, err
	}

	out := make([]Lancamento, 0, len(comissoes)+len(manuais))
	for _, c := range comissoes {
		out = append(out, Lancamento{Tipo: LancamentoComissao, Valor: c.Valor, Venda: c.Venda, Pago: c.Pago})
	}
	for _, m := range manuais {
		tipo := LancamentoCredito
		if m.Tipo == models.TransactionDebit {
			tipo = LancamentoDebito
		}
		out = append(out, Lancamento{Tipo: tipo, Valor: m.Valor, QuitaComissaoPaga: m.QuitaComissaoPaga})
	}
	return out, nil
}

func preloadParceiro(db *gorm.DB) *gorm.DB {
	return db.Preload("Partner", func(db *gorm.DB) *gorm.DB { return db.Select("id, user_id") }).
		Preload("Partner.User", func(db *gorm.DB) *gorm.DB { return db.Select("id, name, email") })
}

func (r *repositoryImpl) ComissoesFechadas(db *gorm.DB, f Filtro) ([]models.Lead, error) {
	var leads []models.Lead
	q := db.Model(&models.Lead{}).
		Select(`id, partner_id, name, commission_value, payment_status, updated_at,
			(commission_proof IS NOT NULL AND commission_proof <> '') AS has_proof`).
		Where("sale_closed = ?", true)
	q = f.Escopo.Aplicar(q, "partner_id")
	if f.Inicio != nil {
		q = q.Where("updated_at >= ?", *f.Inicio)
	}
	if f.Fim != nil {
		q = q.Where("updated_at < ?", *f.Fim)
	}
	err := preloadParceiro(q).Order("updated_at DESC").Find(&leads).Error
	return leads, err
}

func (r *repositoryImpl) Transacoes(db *gorm.DB, f Filtro) ([]models.Transaction, error) {
	var trans []models.Transaction
	q := f.Escopo.Aplicar(db.Model(&models.Transaction{}), "partner_id")
	if f.Inicio != nil {
		q = q.Where("date >= ?", *f.Inicio)
	}
	if f.Fim != nil {
		q = q.Where("date < ?", *f.Fim)
	}
	err := preloadParceiro(q).Order("date DESC").Find(&trans).Error
	return trans, err
}

func (r *repositoryImpl) BuscarComprovante(db *gorm.DB, leadID uint) (*Comprovante, error) {
	var c Comprovante
	res := db.Model(&models.Lead{}).
		Select("id AS lead_id, partner_id, commission_proof AS proof").
		Where("id = ?", leadID).
		Limit(1).
		Scan(&c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *repositoryImpl) BuscarParceiro(db *gorm.DB, id uint) (*models.Partner, error) {
	var p models.Partner
	err := db.First(&p, id).Error
	return &p, err
}

func (r *repositoryImpl) BuscarLead(db *gorm.DB, id uint) (*models.Lead, error) {
	var l models.Lead
	err := db.Omit("commission_proof").First(&l, id).Error
	return &l, err
}

func (r *repositoryImpl) CriarTransacao(db *gorm.DB, t *models.Transaction) error {
	return db.Omit(clause.Associations).Create(t).Error
}

func (r *repositoryImpl) DeletarTransacao(db *gorm.DB, id uint) (int64, error) {
	res := db.Delete(&models.Transaction{}, id)
	return res.RowsAffected, res.Error
}
