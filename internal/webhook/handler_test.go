package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRepo struct {
	leads        map[uint]*models.Lead
	notas        []models.LeadNote
	tarefas      map[string]*models.LeadTask
	atualizacoes int
}

func strPtr(s string) *string { return &s }

func novoFake() *fakeRepo {
	return &fakeRepo{
		leads: map[uint]*models.Lead{
			1: {ID: 1, Status: models.LeadNew, RefID: strPtr("REF-1")},
			2: {ID: 2, Status: models.LeadNegotiation, RefID: strPtr("REF-2"), PipedriveID: strPtr("55")},
			3: {ID: 3, Status: models.LeadNew},
		},
		tarefas: map[string]*models.LeadTask{},
	}
}

func (f *fakeRepo) BuscarLead(_ *gorm.DB, coluna string, valor any) (*models.Lead, error) {
	for _, l := range f.leads {
		switch coluna {
		case "ref_id":
			if l.RefID != nil && *l.RefID == valor {
				c := *l
				return &c, nil
			}
		case "pipedrive_id":
			if l.PipedriveID != nil && *l.PipedriveID == valor {
				c := *l
				return &c, nil
			}
		case "id":
			if l.ID == valor {
				c := *l
				return &c, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) AtualizarLead(_ *gorm.DB, id uint, campos map[string]any) error {
	f.atualizacoes++
	l := f.leads[id]
	if s, ok := campos["status"].(models.LeadStatus); ok {
		l.Status = s
	}
	if p, ok := campos["pipedrive_id"].(string); ok {
		l.PipedriveID = &p
	}
	if ref, ok := campos["ref_id"].(string); ok {
		l.RefID = &ref
	}
	return nil
}

func (f *fakeRepo) NotaExiste(_ *gorm.DB, pipedriveID string) (bool, error) {
	for _, n := range f.notas {
		if n.PipedriveID != nil && *n.PipedriveID == pipedriveID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CriarNota(_ *gorm.DB, n *models.LeadNote) error {
	f.notas = append(f.notas, *n)
	return nil
}

func (f *fakeRepo) BuscarTarefa(_ *gorm.DB, pipedriveID string) (*models.LeadTask, error) {
	t, ok := f.tarefas[pipedriveID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeRepo) SalvarTarefa(_ *gorm.DB, t *models.LeadTask) error {
	c := *t
	f.tarefas[*t.PipedriveID] = &c
	return nil
}

func novoHandler() (*Handler, *fakeRepo) {
	repo := novoFake()
	return &Handler{Repository: repo, Log: zap.NewNop()}, repo
}

func enviar(h *Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/webhook/pipedrive", bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Pipedrive(w, r)
	return w
}

func mensagem(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out["message"]
}

func TestEtapaAtualizaLeadEVinculaNegocio(t *testing.T) {
	h, repo := novoHandler()

	w := enviar(h, `{"stage_id": 3, "deal_id": 70, "ref_id": "REF-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Webhook processado", mensagem(t, w))
	assert.Equal(t, models.LeadQualified, repo.leads[1].Status)
	require.NotNil(t, repo.leads[1].PipedriveID)
	assert.Equal(t, "70", *repo.leads[1].PipedriveID)

	// reenvio não reescreve
	w = enviar(h, `{"stage_id": 3, "deal_id": 70, "ref_id": "REF-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, repo.atualizacoes)
}

func TestEtapaResolvePorNegocioEId(t *testing.T) {
	h, repo := novoHandler()

	w := enviar(h, `{"meta": {"object": "deal", "action": "updated", "id": 55}, "current": {"stage_id": 7}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LeadConverted, repo.leads[2].Status)

	w = enviar(h, `{"stage_id": 8, "lead_id": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LeadLost, repo.leads[1].Status)
}

func TestEtapaNaoMapeadaNaoAltera(t *testing.T) {
	h, repo := novoHandler()

	w := enviar(h, `{"stage_id": 99, "deal_id": 70, "ref_id": "REF-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Evento ignorado", mensagem(t, w))
	assert.Equal(t, models.LeadNew, repo.leads[1].Status)
	assert.Zero(t, repo.atualizacoes)

	// status won/lost do negócio não vale quando a etapa veio fora da tabela
	w = enviar(h, `{"stage_id": 99, "status": "lost", "ref_id": "REF-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Evento ignorado", mensagem(t, w))
	assert.Equal(t, models.LeadNew, repo.leads[1].Status)
	assert.Zero(t, repo.atualizacoes)
}

func TestLeadNaoEncontrado(t *testing.T) {
	h, _ := novoHandler()
	w := enviar(h, `{"stage_id": 2, "ref_id": "NAO-EXISTE"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Lead não encontrado", mensagem(t, w))
}

func TestAtribuicaoDeRef(t *testing.T) {
	h, repo := novoHandler()
	w := enviar(h, `{"meta": {"object": "deal", "action": "added", "id": 88}, "current": {"ref_id": "REF-1"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.leads[1].PipedriveID)
	assert.Equal(t, "88", *repo.leads[1].PipedriveID)
	assert.Equal(t, models.LeadNew, repo.leads[1].Status)
}

func TestAtribuicaoGravaRefIdParaProximosEventos(t *testing.T) {
	h, repo := novoHandler()

	w := enviar(h, `{"meta": {"object": "deal", "action": "updated", "id": 88}, "current": {"ref_id": "NEW-REF", "lead_id": 3}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Webhook processado", mensagem(t, w))
	require.NotNil(t, repo.leads[3].RefID)
	assert.Equal(t, "NEW-REF", *repo.leads[3].RefID)
	require.NotNil(t, repo.leads[3].PipedriveID)
	assert.Equal(t, "88", *repo.leads[3].PipedriveID)

	// só pelo refId
	w = enviar(h, `{"stage_id": 2, "ref_id": "NEW-REF"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LeadContact, repo.leads[3].Status)
}

func TestAtribuicaoNaoTrocaRefExistente(t *testing.T) {
	h, repo := novoHandler()

	w := enviar(h, `{"ref_id": "OUTRA", "lead_id": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.leads[1].RefID)
	assert.Equal(t, "REF-1", *repo.leads[1].RefID)
	assert.Zero(t, repo.atualizacoes)
}

func TestNotaIdempotente(t *testing.T) {
	h, repo := novoHandler()
	body := `{"meta": {"object": "note", "action": "added", "id": 901},
		"current": {"content": "Proposta enviada", "deal_id": 55}}`

	require.Equal(t, http.StatusOK, enviar(h, body).Code)
	require.Equal(t, http.StatusOK, enviar(h, body).Code)

	require.Len(t, repo.notas, 1)
	assert.Equal(t, uint(2), repo.notas[0].LeadID)
	assert.Equal(t, "Proposta enviada", repo.notas[0].Content)
}

func TestAtividadeCriaEAcompanha(t *testing.T) {
	h, repo := novoHandler()

	w := enviar(h, `{"meta": {"object": "activity", "action": "added", "id": 300},
		"current": {"subject": "Ligar", "deal_id": 55, "done": false}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, repo.tarefas, "300")
	assert.False(t, repo.tarefas["300"].Done)
	assert.Equal(t, uint(2), repo.tarefas["300"].LeadID)

	w = enviar(h, `{"meta": {"object": "activity", "action": "updated", "id": 300},
		"current": {"subject": "Ligar", "deal_id": 55, "done": true}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, repo.tarefas["300"].Done)
	assert.Len(t, repo.tarefas, 1)
}

func TestPayloadInvalidoResponde200(t *testing.T) {
	h, _ := novoHandler()
	w := enviar(h, `isso não é json`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Evento ignorado", mensagem(t, w))
}
