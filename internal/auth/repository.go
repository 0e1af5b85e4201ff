package auth

import (
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	BuscarPorEmail(db *gorm.DB, email string) (*models.User, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.User, error)
	CriarComParceiro(db *gorm.DB, u *models.User, p *models.Partner) error

	SalvarRefresh(db *gorm.DB, rt *RefreshToken) error
	BuscarRefresh(db *gorm.DB, hash string) (*RefreshToken, error)
	RevogarRefresh(db *gorm.DB, hash string, quando time.Time) error
	LimparRefresh(db *gorm.DB, agora time.Time) (int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) BuscarPorEmail(db *gorm.DB, email string) (*models.User, error) {
	var u models.User
	err := db.Where("email = ?", email).First(&u).Error
	return &u, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	err := db.Preload("Partner").First(&u, id).Error
	return &u, err
}

// CriarComParceiro grava o usuário e o perfil de parceiro na mesma transação.
func (r *repositoryImpl) CriarComParceiro(db *gorm.DB, u *models.User, p *models.Partner) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		p.UserID = u.ID
		return tx.Create(p).Error
	})
}

func (r *repositoryImpl) SalvarRefresh(db *gorm.DB, rt *RefreshToken) error {
	return db.Create(rt).Error
}

func (r *repositoryImpl) BuscarRefresh(db *gorm.DB, hash string) (*RefreshToken, error) {
	var rt RefreshToken
	err := db.Where("hash = ?", hash).First(&rt).Error
	return &rt, err
}

func (r *repositoryImpl) RevogarRefresh(db *gorm.DB, hash string, quando time.Time) error {
	return db.Model(&RefreshToken{}).
		Where("hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", quando).Error
}

func (r *repositoryImpl) LimparRefresh(db *gorm.DB, agora time.Time) (int64, error) {
	res := db.Where("expires_at < ? OR revoked_at IS NOT NULL", agora).Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}
