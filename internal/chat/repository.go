package chat

import (
	"database/sql"
	"errors"

	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Admins(db *gorm.DB) ([]models.User, error)
	TodosExceto(db *gorm.DB, userID uint) ([]models.User, error)
	UsuariosDoConsultor(db *gorm.DB, consultorID uint) ([]models.User, error)
	// ConsultorDoParceiro devolve nil quando o parceiro ainda não tem consultor.
	ConsultorDoParceiro(db *gorm.DB, userID uint) (*models.User, error)

	Resumos(db *gorm.DB, userID uint) (map[uint]ResumoConversa, error)
	Conversa(db *gorm.DB, a, b uint) ([]models.Message, error)
	MarcarLidas(db *gorm.DB, remetente, destinatario uint) error
	Criar(db *gorm.DB, m *models.Message) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

const colunasContato = "users.id, users.name, users.email, users.role"

func (r *repositoryImpl) Admins(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Select(colunasContato).Where("role = ?", models.RoleAdmin).Order("name").Find(&users).Error
	return users, err
}

func (r *repositoryImpl) TodosExceto(db *gorm.DB, userID uint) ([]models.User, error) {
	var users []models.User
	err := db.Select(colunasContato).Where("id <> ?", userID).Order("name").Find(&users).Error
	return users, err
}

func (r *repositoryImpl) UsuariosDoConsultor(db *gorm.DB, consultorID uint) ([]models.User, error) {
	var users []models.User
	err := db.Select(colunasContato).
		Joins("JOIN partners ON partners.user_id = users.id").
		Where("partners.consultant_id = ?", consultorID).
		Order("users.name").
		Find(&users).Error
	return users, err
}

func (r *repositoryImpl) ConsultorDoParceiro(db *gorm.DB, userID uint) (*models.User, error) {
	var u models.User
	err := db.Select(colunasContato).
		Joins("JOIN partners ON partners.consultant_id = users.id").
		Where("partners.user_id = ?", userID).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) Resumos(db *gorm.DB, userID uint) (map[uint]ResumoConversa, error) {
	var ultimas []struct {
		Contato   uint
		Content   string
		CreatedAt sql.NullTime
	}
	err := db.Raw(`
		SELECT DISTINCT ON (contato) contato, content, created_at FROM (
			SELECT CASE WHEN sender_id = @me THEN receiver_id ELSE sender_id END AS contato,
				content, created_at
			FROM messages
			WHERE sender_id = @me OR receiver_id = @me
		) m
		ORDER BY contato, created_at DESC`, sql.Named("me", userID)).
		Scan(&ultimas).Error
	if err != nil {
		return nil, err
	}

	var naoLidas []struct {
		SenderID uint
		Total    int64
	}
	err = db.Model(&models.Message{}).
		Select("sender_id, COUNT(*) AS total").
		Where("receiver_id = ? AND read = ?", userID, false).
		Group("sender_id").
		Scan(&naoLidas).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]ResumoConversa, len(ultimas))
	for _, u := range ultimas {
		out[u.Contato] = ResumoConversa{ContatoID: u.Contato, UltimaMensagem: u.Content, UltimaEm: u.CreatedAt.Time}
	}
	for _, n := range naoLidas {
		r := out[n.SenderID]
		r.ContatoID = n.SenderID
		r.NaoLidas = n.Total
		out[n.SenderID] = r
	}
	return out, nil
}

func comParticipantes(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender", func(db *gorm.DB) *gorm.DB { return db.Select("id, name") }).
		Preload("Receiver", func(db *gorm.DB) *gorm.DB { return db.Select("id, name") })
}

func (r *repositoryImpl) Conversa(db *gorm.DB, a, b uint) ([]models.Message, error) {
	var msgs []models.Message
	err := comParticipantes(db).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *repositoryImpl) MarcarLidas(db *gorm.DB, remetente, destinatario uint) error {
	return db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", remetente, destinatario, false).
		Update("read", true).Error
}

// Criar grava e recarrega a mensagem com remetente e destinatário.
func (r *repositoryImpl) Criar(db *gorm.DB, m *models.Message) error {
	if err := db.Omit("Sender", "Receiver").Create(m).Error; err != nil {
		return err
	}
	return comParticipantes(db).First(m, m.ID).Error
}
