package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

// fakeRepo guarda usuários, vínculo parceiro -> consultor e mensagens em memória.
type fakeRepo struct {
	mu        sync.Mutex
	users     map[uint]models.User
	consultor map[uint]uint // user do parceiro -> user do consultor
	mensagens []models.Message
	nextID    uint
	agora     time.Time
}

func novoFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: map[uint]models.User{
			1:  {ID: 1, Name: "Admin", Email: "admin@tirvu.com", Role: models.RoleAdmin},
			2:  {ID: 2, Name: "Beatriz Admin", Email: "bia@tirvu.com", Role: models.RoleAdmin},
			10: {ID: 10, Name: "Parceiro Um", Email: "p1@x.com", Role: models.RolePartner},
			11: {ID: 11, Name: "Parceiro Dois", Email: "p2@x.com", Role: models.RolePartner},
			20: {ID: 20, Name: "Consultor", Email: "c@tirvu.com", Role: models.RoleConsultor},
			21: {ID: 21, Name: "Consultor X", Email: "cx@tirvu.com", Role: models.RoleConsultor},
		},
		consultor: map[uint]uint{10: 20},
		agora:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func ordenar(us []models.User) []models.User {
	sort.Slice(us, func(i, j int) bool { return us[i].Name < us[j].Name })
	return us
}

func (f *fakeRepo) Admins(_ *gorm.DB) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if u.Role == models.RoleAdmin {
			out = append(out, u)
		}
	}
	return ordenar(out), nil
}

func (f *fakeRepo) TodosExceto(_ *gorm.DB, userID uint) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if u.ID != userID {
			out = append(out, u)
		}
	}
	return ordenar(out), nil
}

func (f *fakeRepo) UsuariosDoConsultor(_ *gorm.DB, consultorID uint) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for parceiro, c := range f.consultor {
		if c == consultorID {
			out = append(out, f.users[parceiro])
		}
	}
	return ordenar(out), nil
}

func (f *fakeRepo) ConsultorDoParceiro(_ *gorm.DB, userID uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consultor[userID]
	if !ok {
		return nil, nil
	}
	u := f.users[c]
	return &u, nil
}

func (f *fakeRepo) Resumos(_ *gorm.DB, userID uint) (map[uint]ResumoConversa, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint]ResumoConversa{}
	for _, m := range f.mensagens {
		var contato uint
		switch userID {
		case m.SenderID:
			contato = m.ReceiverID
		case m.ReceiverID:
			contato = m.SenderID
		default:
			continue
		}
		r := out[contato]
		r.ContatoID = contato
		if !m.CreatedAt.Before(r.UltimaEm) {
			r.UltimaEm, r.UltimaMensagem = m.CreatedAt, m.Content
		}
		if m.ReceiverID == userID && !m.Read {
			r.NaoLidas++
		}
		out[contato] = r
	}
	return out, nil
}

func (f *fakeRepo) Conversa(_ *gorm.DB, a, b uint) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.mensagens {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarcarLidas(_ *gorm.DB, remetente, destinatario uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.mensagens {
		m := &f.mensagens[i]
		if m.SenderID == remetente && m.ReceiverID == destinatario {
			m.Read = true
		}
	}
	return nil
}

func (f *fakeRepo) Criar(_ *gorm.DB, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = f.agora.Add(time.Duration(f.nextID) * time.Minute)
	sender, receiver := f.users[m.SenderID], f.users[m.ReceiverID]
	m.Sender, m.Receiver = &sender, &receiver
	f.mensagens = append(f.mensagens, *m)
	return nil
}
