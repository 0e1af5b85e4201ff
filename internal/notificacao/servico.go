package notificacao

import (
	"context"
	"time"

	"github.com/Tirvu/api-parceiros/internal/metrics"
	"github.com/Tirvu/api-parceiros/internal/models"
	"go.uber.org/zap"
)

const PortalURL = "https://tirvu-parceiros-frontend.vercel.app/"

// Mensageiro envia mensagens de WhatsApp; *ZAPI é a implementação real.
type Mensageiro interface {
	EnviarTexto(ctx context.Context, phone, mensagem string) error
	EnviarDocumento(ctx context.Context, phone, dataURL string) error
}

// Servico monta e envia as notificações de lead e de parceiro.
// Canal nil é tratado como desligado.
type Servico struct {
	WhatsApp Mensageiro
	N8N      *N8N
	Portal   string
}

func (s *Servico) LeadCriado(ctx context.Context, l models.Lead, p models.Partner) error {
	if s.N8N == nil || s.N8N.URL == "" {
		return nil
	}
	payload := NovoLeadPayload{
		IndicacaoID:            l.ID,
		PartnerID:              p.UserID,
		Nome:                   l.Name,
		Email:                  l.Email,
		Telefone:               l.Phone,
		Empresa:                l.Company,
		Observacao:             l.Observation,
		QuantidadeFuncionarios: l.NumberOfEmployees,
		PodeFalarEmNome:        l.SpeakOnBehalf,
		NomeParceiro:           nomeDoParceiro(p),
		TelefoneParceiro:       p.Phone,
	}
	if p.ConsultantID != nil {
		payload.ConsultorID = *p.ConsultantID
	}
	return s.N8N.EnviarNovoLead(ctx, payload)
}

// VendaFechada envia o resumo da venda e, se já pago, o comprovante.
func (s *Servico) VendaFechada(ctx context.Context, l models.Lead, p models.Partner) error {
	if s.WhatsApp == nil || p.Phone == "" {
		return nil
	}
	if err := s.WhatsApp.EnviarTexto(ctx, p.Phone, mensagemVendaFechada(l, p)); err != nil {
		return err
	}
	if l.PaymentStatus != nil && *l.PaymentStatus == models.PaymentMade && l.CommissionProof != nil && *l.CommissionProof != "" {
		return s.WhatsApp.EnviarDocumento(ctx, p.Phone, *l.CommissionProof)
	}
	return nil
}

func (s *Servico) ParceiroAprovado(ctx context.Context, p models.Partner, senha string) error {
	if s.WhatsApp == nil || p.Phone == "" {
		return nil
	}
	portal := s.Portal
	if portal == "" {
		portal = PortalURL
	}
	return s.WhatsApp.EnviarTexto(ctx, p.Phone, mensagemAprovado(p, senha, portal))
}

func (s *Servico) ParceiroReprovado(ctx context.Context, p models.Partner, motivo string) error {
	if s.WhatsApp == nil || p.Phone == "" {
		return nil
	}
	return s.WhatsApp.EnviarTexto(ctx, p.Phone, mensagemReprovado(p, motivo))
}

// Despachante roda envios fora da requisição; falhas são logadas e contadas,
// nunca devolvidas ao chamador.
type Despachante struct {
	Log      *zap.Logger
	Timeout  time.Duration
	Sincrono bool
}

func (d *Despachante) Disparar(canal string, fn func(ctx context.Context) error) {
	run := func() {
		timeout := d.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				metrics.NotificationsFailed.WithLabelValues(canal).Inc()
				d.log().Error("notificação entrou em pânico", zap.String("canal", canal), zap.Any("panic", rec))
			}
		}()
		if err := fn(ctx); err != nil {
			metrics.NotificationsFailed.WithLabelValues(canal).Inc()
			d.log().Warn("falha ao enviar notificação", zap.String("canal", canal), zap.Error(err))
		}
	}
	if d.Sincrono {
		run()
		return
	}
	go run()
}

func (d *Despachante) log() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
