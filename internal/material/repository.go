package material

import (
	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Listar(db *gorm.DB, tipo models.MaterialType) ([]models.Material, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.Material, error)
	Criar(db *gorm.DB, m *models.Material) error
	Salvar(db *gorm.DB, m *models.Material) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Listar(db *gorm.DB, tipo models.MaterialType) ([]models.Material, error) {
	var materiais []models.Material
	q := db.Order("created_at DESC")
	if tipo != "" {
		q = q.Where("type = ?", tipo)
	}
	err := q.Find(&materiais).Error
	return materiais, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Material, error) {
	var m models.Material
	err := db.First(&m, id).Error
	return &m, err
}

func (r *repositoryImpl) Criar(db *gorm.DB, m *models.Material) error {
	return db.Create(m).Error
}

func (r *repositoryImpl) Salvar(db *gorm.DB, m *models.Material) error {
	return db.Save(m).Error
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Delete(&models.Material{}, id).Error
}
