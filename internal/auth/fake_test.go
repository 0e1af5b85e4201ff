package auth

import (
	"sync"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

// fakeRepo guarda tudo em memória; o *gorm.DB recebido é ignorado.
type fakeRepo struct {
	mu       sync.Mutex
	users    map[uint]*models.User
	partners map[uint]*models.Partner
	refresh  map[string]*RefreshToken
	nextID   uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    map[uint]*models.User{},
		partners: map[uint]*models.Partner{},
		refresh:  map[string]*RefreshToken{},
	}
}

func (f *fakeRepo) BuscarPorEmail(_ *gorm.DB, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) BuscarPorID(_ *gorm.DB, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	c.Partner = f.partners[id]
	return &c, nil
}

func (f *fakeRepo) CriarComParceiro(_ *gorm.DB, u *models.User, p *models.Partner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	if p != nil {
		p.ID = u.ID
		p.UserID = u.ID
		f.partners[u.ID] = p
	}
	return nil
}

func (f *fakeRepo) SalvarRefresh(_ *gorm.DB, rt *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[rt.Hash] = rt
	return nil
}

func (f *fakeRepo) BuscarRefresh(_ *gorm.DB, hash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.refresh[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *rt
	return &c, nil
}

func (f *fakeRepo) RevogarRefresh(_ *gorm.DB, hash string, quando time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.refresh[hash]; ok && rt.RevokedAt == nil {
		rt.RevokedAt = &quando
	}
	return nil
}

func (f *fakeRepo) LimparRefresh(_ *gorm.DB, agora time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, rt := range f.refresh {
		if rt.RevokedAt != nil || rt.ExpiresAt.Before(agora) {
			delete(f.refresh, k)
			n++
		}
	}
	return n, nil
}
