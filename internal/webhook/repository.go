package webhook

import (
	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	// BuscarLead procura por uma coluna de correlação: ref_id, pipedrive_id ou id.
	BuscarLead(db *gorm.DB, coluna string, valor any) (*models.Lead, error)
	AtualizarLead(db *gorm.DB, id uint, campos map[string]any) error

	NotaExiste(db *gorm.DB, pipedriveID string) (bool, error)
	CriarNota(db *gorm.DB, n *models.LeadNote) error
	BuscarTarefa(db *gorm.DB, pipedriveID string) (*models.LeadTask, error)
	SalvarTarefa(db *gorm.DB, t *models.LeadTask) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

var colunasCorrelacao = map[string]bool{"ref_id": true, "pipedrive_id": true, "id": true}

func (r *repositoryImpl) BuscarLead(db *gorm.DB, coluna string, valor any) (*models.Lead, error) {
	if !colunasCorrelacao[coluna] {
		return nil, gorm.ErrRecordNotFound
	}
	var l models.Lead
	err := db.Select("id", "status", "ref_id", "pipedrive_id", "partner_id").
		Where(coluna+" = ?", valor).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repositoryImpl) AtualizarLead(db *gorm.DB, id uint, campos map[string]any) error {
	return db.Model(&models.Lead{}).Where("id = ?", id).Updates(campos).Error
}

func (r *repositoryImpl) NotaExiste(db *gorm.DB, pipedriveID string) (bool, error) {
	var n int64
	err := db.Model(&models.LeadNote{}).Where("pipedrive_id = ?", pipedriveID).Count(&n).Error
	return n > 0, err
}

func (r *repositoryImpl) CriarNota(db *gorm.DB, n *models.LeadNote) error {
	return db.Omit("Author").Create(n).Error
}

func (r *repositoryImpl) BuscarTarefa(db *gorm.DB, pipedriveID string) (*models.LeadTask, error) {
	var t models.LeadTask
	if err := db.Where("pipedrive_id = ?", pipedriveID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repositoryImpl) SalvarTarefa(db *gorm.DB, t *models.LeadTask) error {
	return db.Save(t).Error
}
