package notificacao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Tirvu/api-parceiros/internal/config"
)

const zapiBaseURL = "https://api.z-api.io"

var naoDigitos = regexp.MustCompile(`\D`)

// ZAPI é o cliente da Z-API usado para mensagens de WhatsApp.
type ZAPI struct {
	BaseURL     string
	ClientToken string
	HTTP        *http.Client
}

func NovoZAPI(cfg config.ZAPIConfig) *ZAPI {
	return &ZAPI{
		BaseURL:     fmt.Sprintf("%s/instances/%s/token/%s", zapiBaseURL, cfg.Instance, cfg.Token),
		ClientToken: cfg.ClientToken,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

// NormalizarTelefone deixa só dígitos e garante o DDI 55.
func NormalizarTelefone(phone string) string {
	clean := naoDigitos.ReplaceAllString(phone, "")
	if clean == "" {
		return ""
	}
	if !strings.HasPrefix(clean, "55") {
		clean = "55" + clean
	}
	return clean
}

// ExtensaoDoDataURL deduz a extensão do arquivo pelo mime de um data URL.
func ExtensaoDoDataURL(data string) string {
	if !strings.HasPrefix(data, "data:") {
		return "pdf"
	}
	mime, _, ok := strings.Cut(strings.TrimPrefix(data, "data:"), ";")
	if !ok {
		return "pdf"
	}
	_, sub, ok := strings.Cut(mime, "/")
	if !ok || sub == "" {
		return "pdf"
	}
	switch sub {
	case "jpeg":
		return "jpg"
	case "plain":
		return "txt"
	case "msword":
		return "doc"
	case "vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	}
	return sub
}

func (z *ZAPI) EnviarTexto(ctx context.Context, phone, mensagem string) error {
	return z.post(ctx, "/send-text", map[string]string{
		"phone":   NormalizarTelefone(phone),
		"message": mensagem,
	})
}

// EnviarDocumento envia o data URL completo; a Z-API aceita o prefixo data:.
func (z *ZAPI) EnviarDocumento(ctx context.Context, phone, dataURL string) error {
	ext := ExtensaoDoDataURL(dataURL)
	return z.post(ctx, "/send-document/"+ext, map[string]string{
		"phone":    NormalizarTelefone(phone),
		"document": dataURL,
		"fileName": "comprovante." + ext,
	})
}

type zapiResposta struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (z *ZAPI) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Token", z.ClientToken)

	resp, err := z.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("z-api %s: status %d: %s", path, resp.StatusCode, raw)
	}
	// a Z-API às vezes responde 200 com erro no corpo
	var r zapiResposta
	if json.Unmarshal(raw, &r) == nil && (r.Error != "" || r.Status == "error") {
		return fmt.Errorf("z-api %s: %s%s", path, r.Error, r.Message)
	}
	return nil
}
