package usuario

import (
	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Listar(db *gorm.DB, role models.Role) ([]models.User, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.User, error)
	EmailEmUso(db *gorm.DB, email string, exceto uint) (bool, error)
	Criar(db *gorm.DB, u *models.User) error
	Salvar(db *gorm.DB, u *models.User) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Listar(db *gorm.DB, role models.Role) ([]models.User, error) {
	var users []models.User
	q := db.Order("created_at DESC")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	err := db.First(&u, id).Error
	return &u, err
}

func (r *repositoryImpl) EmailEmUso(db *gorm.DB, email string, exceto uint) (bool, error) {
	var n int64
	err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, exceto).Count(&n).Error
	return n > 0, err
}

func (r *repositoryImpl) Criar(db *gorm.DB, u *models.User) error {
	return db.Create(u).Error
}

func (r *repositoryImpl) Salvar(db *gorm.DB, u *models.User) error {
	return db.Omit("Partner").Save(u).Error
}

// Deletar remove o perfil de parceiro vazio junto; leads vinculados impedem a remoção.
func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Partner{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}
