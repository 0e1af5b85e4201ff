package lead

import (
	"errors"
	"time"

	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCotaExcedida = errors.New("cota mensal de leads sem autorização excedida")

// Cota é a janela [Inicio, Fim) e o limite de leads com speakOnBehalf=false.
type Cota struct {
	Inicio time.Time
	Fim    time.Time
	Limite int64
}

type Filtro struct {
	Escopo acesso.Escopo
	Inicio *time.Time
	Fim    *time.Time
}

type Repository interface {
	Listar(db *gorm.DB, f Filtro) ([]models.Lead, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.Lead, error)
	Criar(db *gorm.DB, l *models.Lead, cota *Cota) error
	Salvar(db *gorm.DB, l *models.Lead, cota *Cota) error
	Deletar(db *gorm.DB, id uint) error

	BuscarParceiro(db *gorm.DB, partnerID uint) (*models.Partner, error)
	GarantirParceiroDoUsuario(db *gorm.DB, userID uint) (*models.Partner, error)

	ListarNotas(db *gorm.DB, leadID uint) ([]models.LeadNote, error)
	CriarNota(db *gorm.DB, n *models.LeadNote) error

	ListarTarefas(db *gorm.DB, leadID uint) ([]models.LeadTask, error)
	BuscarTarefa(db *gorm.DB, leadID, taskID uint) (*models.LeadTask, error)
	CriarTarefa(db *gorm.DB, t *models.LeadTask) error
	SalvarTarefa(db *gorm.DB, t *models.LeadTask) error
	DeletarTarefa(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// a prova não vai na listagem; hasProof indica se existe
const colunasListagem = `leads.id, leads.partner_id, leads.name, leads.company, leads.email, leads.phone,
	leads.type, leads.document, leads.observation, leads.number_of_employees, leads.status, leads.value,
	leads.sale_closed, leads.payment_status, leads.sale_value, leads.commission_percentage,
	leads.commission_value, leads.speak_on_behalf, leads.ref_id, leads.pipedrive_id,
	leads.created_at, leads.updated_at,
	(SELECT COUNT(*) FROM lead_notes n WHERE n.lead_id = leads.id) AS notes_count,
	(leads.commission_proof IS NOT NULL AND leads.commission_proof <> '') AS has_proof`

func (r *repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]models.Lead, error) {
	q := f.Escopo.Aplicar(db.Model(&models.Lead{}), "leads.partner_id")
	if f.Inicio != nil {
		q = q.Where("leads.created_at >= ?", *f.Inicio)
	}
	if f.Fim != nil {
		q = q.Where("leads.created_at < ?", *f.Fim)
	}

	var list []models.Lead
	err := q.Select(colunasListagem).
		Preload("Partner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, user_id, uf, pix_key, pix_key_type")
		}).
		Preload("Partner.User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, role")
		}).
		Order("leads.created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Lead, error) {
	var l models.Lead
	if err := db.First(&l, id).Error; err != nil {
		return nil, err
	}
	l.HasProof = l.CommissionProof != nil && *l.CommissionProof != ""
	return &l, nil
}

// verificarCota serializa por parceiro com advisory lock da transação, para
// que criações concorrentes não passem juntas do limite.
func verificarCota(tx *gorm.DB, partnerID uint, cota *Cota) error {
	if cota == nil {
		return nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(partnerID)).Error; err != nil {
		return err
	}
	var n int64
	err := tx.Model(&models.Lead{}).
		Where("partner_id = ? AND speak_on_behalf = ? AND created_at >= ? AND created_at < ?",
			partnerID, false, cota.Inicio, cota.Fim).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n >= cota.Limite {
		return ErrCotaExcedida
	}
	return nil
}

func (r *repositoryImpl) Criar(db *gorm.DB, l *models.Lead, cota *Cota) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := verificarCota(tx, l.PartnerID, cota); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(l).Error
	})
}

func (r *repositoryImpl) Salvar(db *gorm.DB, l *models.Lead, cota *Cota) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := verificarCota(tx, l.PartnerID, cota); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(l).Error
	})
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&models.LeadNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lead_id = ?", id).Delete(&models.LeadTask{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Lead{}, id).Error
	})
}

func (r *repositoryImpl) BuscarParceiro(db *gorm.DB, partnerID uint) (*models.Partner, error) {
	var p models.Partner
	err := db.Preload("User").First(&p, partnerID).Error
	return &p, err
}

// GarantirParceiroDoUsuario devolve o perfil de parceiro do usuário, criando
// um perfil aprovado quando não existir (leads cadastrados pela própria casa).
func (r *repositoryImpl) GarantirParceiroDoUsuario(db *gorm.DB, userID uint) (*models.Partner, error) {
	p := models.Partner{
		UserID: userID,
		Status: models.PartnerApproved,
		UF:     "DF",
		City:   "Distrito Federal",
	}
	err := db.Where(models.Partner{UserID: userID}).Attrs(p).FirstOrCreate(&p).Error
	return &p, err
}

func (r *repositoryImpl) ListarNotas(db *gorm.DB, leadID uint) ([]models.LeadNote, error) {
	var list []models.LeadNote
	err := db.Where("lead_id = ?", leadID).
		Preload("Author", func(db *gorm.DB) *gorm.DB { return db.Select("id, name, role") }).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) CriarNota(db *gorm.DB, n *models.LeadNote) error {
	if err := db.Create(n).Error; err != nil {
		return err
	}
	return db.Preload("Author", func(db *gorm.DB) *gorm.DB { return db.Select("id, name, role") }).
		First(n, n.ID).Error
}

func (r *repositoryImpl) ListarTarefas(db *gorm.DB, leadID uint) ([]models.LeadTask, error) {
	var list []models.LeadTask
	err := db.Where("lead_id = ?", leadID).
		Order("due_date ASC NULLS LAST").
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarTarefa(db *gorm.DB, leadID, taskID uint) (*models.LeadTask, error) {
	var t models.LeadTask
	err := db.Where("lead_id = ?", leadID).First(&t, taskID).Error
	return &t, err
}

func (r *repositoryImpl) CriarTarefa(db *gorm.DB, t *models.LeadTask) error {
	return db.Create(t).Error
}

func (r *repositoryImpl) SalvarTarefa(db *gorm.DB, t *models.LeadTask) error {
	return db.Save(t).Error
}

func (r *repositoryImpl) DeletarTarefa(db *gorm.DB, id uint) error {
	return db.Delete(&models.LeadTask{}, id).Error
}
