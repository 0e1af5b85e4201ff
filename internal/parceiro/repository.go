package parceiro

import (
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filtro da listagem de parceiros.
type Filtro struct {
	Status      string
	ConsultorID *uint
	Inicio, Fim *time.Time
}

type Repository interface {
	Listar(db *gorm.DB, f Filtro) ([]models.Partner, error)
	ListarConsultores(db *gorm.DB) ([]models.User, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.Partner, error)
	BuscarPorUsuario(db *gorm.DB, userID uint) (*models.Partner, error)
	BuscarUsuario(db *gorm.DB, id uint) (*models.User, error)
	Aprovar(db *gorm.DB, p *models.Partner, senhaHash string) error
	Salvar(db *gorm.DB, p *models.Partner) error
	EmailCadastrado(db *gorm.DB, email string) (bool, error)
	Registrar(db *gorm.DB, u *models.User, p *models.Partner) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]models.Partner, error) {
	var partners []models.Partner
	// parceiros "da casa" (usuário admin) não aparecem na gestão
	q := db.Model(&models.Partner{}).
		Joins("JOIN users ON users.id = partners.user_id AND users.role <> ?", models.RoleAdmin)

	if f.Status != "" {
		q = q.Where("partners.status = ?", f.Status)
	}
	if f.ConsultorID != nil {
		q = q.Where("partners.consultant_id = ?", *f.ConsultorID)
	}
	if f.Inicio != nil {
		q = q.Where("partners.created_at >= ?", *f.Inicio)
	}
	if f.Fim != nil {
		q = q.Where("partners.created_at < ?", *f.Fim)
	}

	err := q.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id, name, email, role") }).
		Preload("Consultant", func(db *gorm.DB) *gorm.DB { return db.Select("id, name, email") }).
		Order("partners.created_at DESC").
		Find(&partners).Error
	return partners, err
}

func (r *repositoryImpl) ListarConsultores(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Select("id, name, email, role").
		Where("role = ?", models.RoleConsultor).
		Order("name").
		Find(&users).Error
	return users, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Partner, error) {
	var p models.Partner
	err := db.Preload("User").First(&p, id).Error
	return &p, err
}

func (r *repositoryImpl) BuscarPorUsuario(db *gorm.DB, userID uint) (*models.Partner, error) {
	var p models.Partner
	err := db.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id, name, email, role") }).
		Where("user_id = ?", userID).
		First(&p).Error
	return &p, err
}

func (r *repositoryImpl) BuscarUsuario(db *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	err := db.Select("id, name, email, role").First(&u, id).Error
	return &u, err
}

// Aprovar troca a senha do usuário e grava o parceiro aprovado juntos.
func (r *repositoryImpl) Aprovar(db *gorm.DB, p *models.Partner, senhaHash string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", p.UserID).Update("password", senhaHash).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(p).Error
	})
}

func (r *repositoryImpl) Salvar(db *gorm.DB, p *models.Partner) error {
	return db.Omit(clause.Associations).Save(p).Error
}

func (r *repositoryImpl) EmailCadastrado(db *gorm.DB, email string) (bool, error) {
	var n int64
	err := db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *repositoryImpl) Registrar(db *gorm.DB, u *models.User, p *models.Partner) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		p.UserID = u.ID
		return tx.Omit(clause.Associations).Create(p).Error
	})
}
