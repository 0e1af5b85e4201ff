package webhook

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Tirvu/api-parceiros/internal/metrics"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tamanhoMaximo = 1 << 20

// Resultados registrados em webhook_events_total.
const (
	resultadoAplicado   = "applied"
	resultadoInalterado = "unchanged"
	resultadoDuplicado  = "duplicate"
	resultadoIgnorado   = "ignored"
	resultadoErro       = "error"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Parser     Parser
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, campoRef string, loc *time.Location, log *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Parser:     Parser{CampoRef: campoRef, Local: loc},
		Log:        log,
	}
}

// POST /webhook/pipedrive
func (h *Handler) Pipedrive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, tamanhoMaximo))
	if err != nil {
		utils.EscreverErro(w, h.Log, err)
		return
	}

	ev := h.Parser.Interpretar(r.Header.Get("Content-Type"), body)
	if ev.Tipo == TipoIgnorado {
		metrics.WebhookEvents.WithLabelValues(string(ev.Tipo), resultadoIgnorado).Inc()
		h.Log.Info("webhook ignorado", zap.String("motivo", ev.Motivo))
		utils.JSONMensagem(w, http.StatusOK, "Evento ignorado")
		return
	}

	resultado, err := h.Aplicar(ev)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(ev.Tipo), resultadoErro).Inc()
		utils.EscreverErro(w, h.Log, err)
		return
	}
	metrics.WebhookEvents.WithLabelValues(string(ev.Tipo), resultado).Inc()
	h.Log.Info("webhook processado",
		zap.String("tipo", string(ev.Tipo)),
		zap.String("resultado", resultado),
		zap.String("ref_id", ev.Lead.RefID),
		zap.String("deal_id", ev.Lead.DealID),
	)
	utils.JSONMensagem(w, http.StatusOK, "Webhook processado")
}

// resolver tenta refId, depois pipedriveId, depois o id interno.
func (h *Handler) resolver(ref Referencia) (*models.Lead, error) {
	tentativas := []struct {
		coluna string
		valor  any
		ok     bool
	}{
		{"ref_id", ref.RefID, ref.RefID != ""},
		{"pipedrive_id", ref.DealID, ref.DealID != ""},
		{"id", ref.LeadID, ref.LeadID != 0},
	}
	for _, t := range tentativas {
		if !t.ok {
			continue
		}
		l, err := h.Repository.BuscarLead(h.DB, t.coluna, t.valor)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, utils.NaoEncontrado("Lead não encontrado")
}

// Aplicar executa o evento já normalizado. Reenvios do CRM não duplicam nada.
func (h *Handler) Aplicar(ev Evento) (string, error) {
	lead, err := h.resolver(ev.Lead)
	if err != nil {
		return "", err
	}

	switch ev.Tipo {
	case TipoEtapa, TipoReferencia:
		campos := map[string]any{}
		if ev.Tipo == TipoEtapa && lead.Status != ev.Status {
			campos["status"] = ev.Status
		}
		if d := ev.Lead.DealID; d != "" && (lead.PipedriveID == nil || *lead.PipedriveID != d) {
			campos["pipedrive_id"] = d
		}
		// refId só é gravado uma vez; depois passa a ser a primeira chave de busca.
		if ref := ev.Lead.RefID; ref != "" && lead.RefID == nil {
			campos["ref_id"] = ref
		}
		if len(campos) == 0 {
			return resultadoInalterado, nil
		}
		if err := h.Repository.AtualizarLead(h.DB, lead.ID, campos); err != nil {
			return "", err
		}
		return resultadoAplicado, nil

	case TipoNota:
		existe, err := h.Repository.NotaExiste(h.DB, ev.ExternoID)
		if err != nil {
			return "", err
		}
		if existe {
			return resultadoDuplicado, nil
		}
		id := ev.ExternoID
		err = h.Repository.CriarNota(h.DB, &models.LeadNote{LeadID: lead.ID, Content: ev.Conteudo, PipedriveID: &id})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return resultadoDuplicado, nil
		}
		if err != nil {
			return "", err
		}
		return resultadoAplicado, nil

	case TipoAtividade:
		return h.aplicarAtividade(lead, ev)
	}
	return resultadoIgnorado, nil
}

// aplicarAtividade cria a tarefa na primeira vez; depois só acompanha título, prazo e conclusão.
func (h *Handler) aplicarAtividade(lead *models.Lead, ev Evento) (string, error) {
	t, err := h.Repository.BuscarTarefa(h.DB, ev.ExternoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id := ev.ExternoID
		t = &models.LeadTask{
			LeadID:      lead.ID,
			Title:       ev.Titulo,
			Description: ev.Conteudo,
			DueDate:     ev.Prazo,
			Duration:    ev.Duracao,
			Done:        ev.Feita,
			PipedriveID: &id,
		}
		if err := h.Repository.SalvarTarefa(h.DB, t); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return resultadoDuplicado, nil
			}
			return "", err
		}
		return resultadoAplicado, nil
	}
	if err != nil {
		return "", err
	}

	mesmoPrazo := (t.DueDate == nil && ev.Prazo == nil) ||
		(t.DueDate != nil && ev.Prazo != nil && t.DueDate.Equal(*ev.Prazo))
	if t.Title == ev.Titulo && t.Done == ev.Feita && mesmoPrazo {
		return resultadoDuplicado, nil
	}
	t.Title, t.Done, t.DueDate = ev.Titulo, ev.Feita, ev.Prazo
	if err := h.Repository.SalvarTarefa(h.DB, t); err != nil {
		return "", err
	}
	return resultadoAplicado, nil
}
