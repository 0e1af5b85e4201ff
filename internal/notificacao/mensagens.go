package notificacao

import (
	"fmt"
	"strings"

	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatarBRL formata no padrão R$ 1.234,56.
func FormatarBRL(v *decimal.Decimal) string {
	if v == nil {
		return "R$ 0,00"
	}
	return ptBR.Sprintf("R$ %.2f", v.Round(2).InexactFloat64())
}

func nomeDoParceiro(p models.Partner) string {
	if p.User != nil {
		return p.User.Name
	}
	return "parceiro"
}

func mensagemVendaFechada(l models.Lead, p models.Partner) string {
	label := "Não informado"
	if l.PaymentStatus != nil {
		label = l.PaymentStatus.Label()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s, parabéns! 🎉\n\n", nomeDoParceiro(p))
	fmt.Fprintf(&b, "A venda do lead *%s* foi confirmada!\n\n", l.Name)
	fmt.Fprintf(&b, "💰 Valor da Venda: %s\n", FormatarBRL(l.SaleValue))
	fmt.Fprintf(&b, "💵 Sua Comissão: %s\n", FormatarBRL(l.CommissionValue))
	fmt.Fprintf(&b, "📊 Status do Pagamento: *%s*\n", label)
	return b.String()
}

func mensagemAprovado(p models.Partner, senha, portal string) string {
	email := ""
	if p.User != nil {
		email = p.User.Email
	}
	return fmt.Sprintf(
		"Olá %s, sua conta de parceiro Tirvu foi APROVADA! 🎉\n\nAcesse a plataforma em: %s\nLogin: %s\nSenha: %s\n\nBem-vindo ao time!",
		nomeDoParceiro(p), portal, email, senha,
	)
}

func mensagemReprovado(p models.Partner, motivo string) string {
	return fmt.Sprintf(
		"Olá %s, sua solicitação de parceria Tirvu foi analisada.\n\nInfelizmente, não foi aprovada neste momento.\nMotivo: %s\n\nQualquer dúvida, entre em contato.",
		nomeDoParceiro(p), motivo,
	)
}
