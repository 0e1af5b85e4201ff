package lead

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
	"gorm.io/gorm"
)

type fakeEscopos struct {
	porUsuario   map[uint]uint
	porConsultor map[uint][]uint
}

func (f fakeEscopos) PartnerIDDoUsuario(_ *gorm.DB, userID uint) (uint, error) {
	id, ok := f.porUsuario[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return id, nil
}

func (f fakeEscopos) PartnerIDsDoConsultor(_ *gorm.DB, consultorID uint) ([]uint, error) {
	return f.porConsultor[consultorID], nil
}

type fakeRepo struct {
	mu       sync.Mutex
	agora    func() time.Time
	leads    map[uint]*models.Lead
	partners map[uint]*models.Partner
	notas    []models.LeadNote
	tarefas  map[uint]*models.LeadTask
	nextID   uint
}

func newFakeRepo(agora func() time.Time) *fakeRepo {
	return &fakeRepo{
		agora:    agora,
		leads:    map[uint]*models.Lead{},
		partners: map[uint]*models.Partner{},
		tarefas:  map[uint]*models.LeadTask{},
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) Listar(_ *gorm.DB, filtro Filtro) ([]models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Lead
	for _, l := range f.leads {
		if !filtro.Escopo.Permite(l.PartnerID) {
			continue
		}
		if filtro.Inicio != nil && l.CreatedAt.Before(*filtro.Inicio) {
			continue
		}
		if filtro.Fim != nil && !l.CreatedAt.Before(*filtro.Fim) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) BuscarPorID(_ *gorm.DB, id uint) (*models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *l
	return &c, nil
}

func (f *fakeRepo) cotaExcedida(partnerID uint, cota *Cota) bool {
	if cota == nil {
		return false
	}
	var n int64
	for _, l := range f.leads {
		if l.PartnerID == partnerID && !l.SpeakOnBehalf && !l.CreatedAt.Before(cota.Inicio) && l.CreatedAt.Before(cota.Fim) {
			n++
		}
	}
	return n >= cota.Limite
}

func (f *fakeRepo) Criar(_ *gorm.DB, l *models.Lead, cota *Cota) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cotaExcedida(l.PartnerID, cota) {
		return ErrCotaExcedida
	}
	l.ID = f.id()
	l.CreatedAt = f.agora()
	c := *l
	f.leads[l.ID] = &c
	return nil
}

func (f *fakeRepo) Salvar(_ *gorm.DB, l *models.Lead, cota *Cota) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cotaExcedida(l.PartnerID, cota) {
		return ErrCotaExcedida
	}
	c := *l
	f.leads[l.ID] = &c
	return nil
}

func (f *fakeRepo) Deletar(_ *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.leads, id)
	return nil
}

func (f *fakeRepo) BuscarParceiro(_ *gorm.DB, partnerID uint) (*models.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.partners[partnerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeRepo) GarantirParceiroDoUsuario(_ *gorm.DB, userID uint) (*models.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.partners {
		if p.UserID == userID {
			return p, nil
		}
	}
	p := &models.Partner{ID: 900 + userID, UserID: userID, Status: models.PartnerApproved, UF: "DF"}
	f.partners[p.ID] = p
	return p, nil
}

func (f *fakeRepo) ListarNotas(_ *gorm.DB, leadID uint) ([]models.LeadNote, error) {
	var out []models.LeadNote
	for _, n := range f.notas {
		if n.LeadID == leadID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) CriarNota(_ *gorm.DB, n *models.LeadNote) error {
	n.ID = f.id()
	f.notas = append(f.notas, *n)
	return nil
}

func (f *fakeRepo) ListarTarefas(_ *gorm.DB, leadID uint) ([]models.LeadTask, error) {
	var out []models.LeadTask
	for _, t := range f.tarefas {
		if t.LeadID == leadID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) BuscarTarefa(_ *gorm.DB, leadID, taskID uint) (*models.LeadTask, error) {
	t, ok := f.tarefas[taskID]
	if !ok || t.LeadID != leadID {
		return nil, gorm.ErrRecordNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeRepo) CriarTarefa(_ *gorm.DB, t *models.LeadTask) error {
	t.ID = f.id()
	c := *t
	f.tarefas[t.ID] = &c
	return nil
}

func (f *fakeRepo) SalvarTarefa(_ *gorm.DB, t *models.LeadTask) error {
	c := *t
	f.tarefas[t.ID] = &c
	return nil
}

func (f *fakeRepo) DeletarTarefa(_ *gorm.DB, id uint) error {
	delete(f.tarefas, id)
	return nil
}

type fakeNotificador struct {
	mu      sync.Mutex
	criados []models.Lead
	vendas  []models.Lead
}

func (f *fakeNotificador) LeadCriado(_ context.Context, l models.Lead, _ models.Partner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.criados = append(f.criados, l)
	return nil
}

func (f *fakeNotificador) VendaFechada(_ context.Context, l models.Lead, _ models.Partner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vendas = append(f.vendas, l)
	return nil
}
