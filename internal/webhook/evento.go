package webhook

import (
	"time"

	"github.com/Tirvu/api-parceiros/internal/models"
)

type Tipo string

const (
	TipoEtapa      Tipo = "stage_change"
	TipoNota       Tipo = "note"
	TipoReferencia Tipo = "ref_assignment"
	TipoAtividade  Tipo = "activity"
	TipoIgnorado   Tipo = "ignored"
)

// Referencia identifica o lead. A resolução tenta RefID, depois DealID, depois LeadID.
type Referencia struct {
	RefID  string
	DealID string
	LeadID uint
}

func (r Referencia) Vazia() bool { return r.RefID == "" && r.DealID == "" && r.LeadID == 0 }

// Evento é a forma normalizada de qualquer payload do CRM.
type Evento struct {
	Tipo   Tipo
	Motivo string // preenchido quando ignorado
	Lead   Referencia

	Status models.LeadStatus

	// nota ou atividade
	ExternoID string
	Conteudo  string
	Titulo    string
	Prazo     *time.Time
	Duracao   string
	Feita     bool
}

// etapas é a tabela fixa stage_id -> status do funil.
var etapas = map[int]models.LeadStatus{
	1: models.LeadNew,
	2: models.LeadContact,
	3: models.LeadQualified,
	4: models.LeadMeetingScheduled,
	5: models.LeadProposalSent,
	6: models.LeadNegotiation,
	7: models.LeadConverted,
	8: models.LeadLost,
}

func StatusDaEtapa(stage int) (models.LeadStatus, bool) {
	s, ok := etapas[stage]
	return s, ok
}

// statusDoNegocio cobre negócios ganhos/perdidos fora da tabela de etapas.
func statusDoNegocio(status string) (models.LeadStatus, bool) {
	switch status {
	case "won":
		return models.LeadConverted, true
	case "lost":
		return models.LeadLost, true
	}
	return "", false
}

func ignorado(motivo string) Evento {
	return Evento{Tipo: TipoIgnorado, Motivo: motivo}
}
