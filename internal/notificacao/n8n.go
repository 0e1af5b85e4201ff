package notificacao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NovoLeadPayload é o corpo enviado ao fluxo de indicações do n8n.
type NovoLeadPayload struct {
	IndicacaoID            uint   `json:"indicacao_id"`
	PartnerID              uint   `json:"partner_id"`
	Nome                   string `json:"nome"`
	Email                  string `json:"email"`
	Telefone               string `json:"telefone"`
	Empresa                string `json:"empresa"`
	Cargo                  string `json:"cargo"`
	Observacao             string `json:"observacao"`
	QuantidadeFuncionarios string `json:"quantidade_funcionarios"`
	PodeFalarEmNome        bool   `json:"pode_falar_em_nome"`
	ConsultorID            uint   `json:"consultor_id"`
	NomeParceiro           string `json:"nome_parceiro"`
	TelefoneParceiro       string `json:"telefone_parceiro"`
}

type N8N struct {
	URL  string
	HTTP *http.Client
}

func NovoN8N(url string) *N8N {
	return &N8N{URL: url, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (n *N8N) EnviarNovoLead(ctx context.Context, p NovoLeadPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("n8n: status %d", resp.StatusCode)
	}
	return nil
}
