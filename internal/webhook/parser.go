package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Parser reconhece os formatos enviados pelo Pipedrive e pelas automações:
// campos diretos, webhooks v1 (meta/current/previous), v2 (meta/data/previous),
// JSON embrulhado em string ou na chave vazia e corpo form-encoded.
type Parser struct {
	// CampoRef é a chave do campo customizado do negócio que guarda o refId do lead.
	CampoRef string
	Local    *time.Location
}

const profundidadeMaxima = 3

var errFormato = errors.New("formato de payload não reconhecido")

func (p Parser) Interpretar(contentType string, body []byte) Evento {
	dados, err := decodificar(contentType, body)
	if err != nil {
		return ignorado(err.Error())
	}
	return p.normalizar(dados)
}

func decodificar(contentType string, body []byte) (map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("corpo vazio")
	}

	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		vals, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, errFormato
		}
		if v := vals.Get(""); v != "" {
			return decodificarJSON([]byte(v), 0)
		}
		if len(vals) == 1 {
			for k, vs := range vals {
				if len(vs) > 0 && vs[0] != "" {
					if m, err := decodificarJSON([]byte(vs[0]), 0); err == nil {
						return m, nil
					}
				}
				// JSON postado como form vira a própria chave
				return decodificarJSON([]byte(k), 0)
			}
		}
		return nil, errFormato
	}
	return decodificarJSON(body, 0)
}

func decodificarJSON(raw []byte, nivel int) (map[string]any, error) {
	if nivel > profundidadeMaxima {
		return nil, errFormato
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errFormato
	}

	switch t := v.(type) {
	case string:
		return decodificarJSON([]byte(t), nivel+1)
	case map[string]any:
		if s, ok := t[""].(string); ok && len(t) == 1 {
			return decodificarJSON([]byte(s), nivel+1)
		}
		return t, nil
	}
	return nil, errFormato
}

func (p Parser) normalizar(m map[string]any) Evento {
	meta := mapa(m["meta"])
	if meta == nil {
		return p.negocio(m, texto(m["deal_id"]))
	}

	entidade := texto(meta["object"])
	if entidade == "" {
		entidade = texto(meta["entity"])
	}
	acao := texto(meta["action"])
	if strings.HasPrefix(acao, "delete") {
		return ignorado("remoção não é sincronizada")
	}

	dados := mapa(m["current"])
	if dados == nil {
		dados = mapa(m["data"])
	}
	if dados == nil {
		return ignorado("payload sem dados")
	}

	id := texto(meta["id"])
	if id == "" {
		id = texto(meta["entity_id"])
	}
	if id == "" {
		id = texto(dados["id"])
	}

	switch entidade {
	case "deal":
		return p.negocio(dados, id)
	case "note":
		return p.nota(dados, id)
	case "activity":
		return p.atividade(dados, id)
	}
	return ignorado("entidade " + entidade + " não tratada")
}

func (p Parser) negocio(dados map[string]any, dealID string) Evento {
	ref := Referencia{RefID: p.ref(dados), DealID: dealID}
	if id, ok := inteiro(dados["lead_id"]); ok && id > 0 {
		ref.LeadID = uint(id)
	}
	if ref.Vazia() {
		return ignorado("negócio sem referência de lead")
	}

	// Etapa fora da tabela nunca altera o lead, mesmo com status won/lost.
	stage, temEtapa := inteiro(dados["stage_id"])
	if temEtapa {
		if s, ok := StatusDaEtapa(stage); ok {
			return Evento{Tipo: TipoEtapa, Lead: ref, Status: s}
		}
		return ignorado("etapa " + strconv.Itoa(stage) + " não mapeada")
	}
	if s, ok := statusDoNegocio(texto(dados["status"])); ok {
		return Evento{Tipo: TipoEtapa, Lead: ref, Status: s}
	}
	if ref.RefID != "" && (ref.DealID != "" || ref.LeadID != 0) {
		return Evento{Tipo: TipoReferencia, Lead: ref}
	}
	return ignorado("negócio sem alteração relevante")
}

func (p Parser) ref(dados map[string]any) string {
	chaves := []string{"ref_id", "refId"}
	if p.CampoRef != "" {
		chaves = append([]string{p.CampoRef}, chaves...)
	}
	custom := mapa(dados["custom_fields"])
	for _, k := range chaves {
		if v := texto(dados[k]); v != "" {
			return v
		}
		if custom == nil {
			continue
		}
		switch v := custom[k].(type) {
		case map[string]any:
			if s := texto(v["value"]); s != "" {
				return s
			}
		default:
			if s := texto(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func (p Parser) nota(dados map[string]any, id string) Evento {
	conteudo := texto(dados["content"])
	deal := texto(dados["deal_id"])
	if id == "" || conteudo == "" || deal == "" {
		return ignorado("nota sem id, conteúdo ou negócio")
	}
	return Evento{Tipo: TipoNota, Lead: Referencia{DealID: deal}, ExternoID: id, Conteudo: conteudo}
}

func (p Parser) atividade(dados map[string]any, id string) Evento {
	titulo := texto(dados["subject"])
	deal := texto(dados["deal_id"])
	if id == "" || titulo == "" || deal == "" {
		return ignorado("atividade sem id, assunto ou negócio")
	}
	return Evento{
		Tipo:      TipoAtividade,
		Lead:      Referencia{DealID: deal},
		ExternoID: id,
		Titulo:    titulo,
		Conteudo:  texto(dados["note"]),
		Prazo:     p.prazo(texto(dados["due_date"]), texto(dados["due_time"])),
		Duracao:   texto(dados["duration"]),
		Feita:     booleano(dados["done"]),
	}
}

func (p Parser) prazo(data, hora string) *time.Time {
	if data == "" {
		return nil
	}
	loc := p.Local
	if loc == nil {
		loc = time.UTC
	}
	if hora != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04", data+" "+hora, loc); err == nil {
			return &t
		}
	}
	t, err := time.ParseInLocation("2006-01-02", data, loc)
	if err != nil {
		return nil
	}
	return &t
}

func mapa(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func texto(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func inteiro(v any) (int, bool) {
	s := texto(v)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func booleano(v any) bool {
	switch texto(v) {
	case "true", "1":
		return true
	}
	return false
}
