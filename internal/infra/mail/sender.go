package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/quiz-funnel/internal/config"
)

var alertTemplate = template.Must(template.New("attribution_alert").Parse(`Compra sem atribuição na Meta após {{.Attempts}} tentativas.

Transação: {{.TransactionID}}
Comprador: {{.Email}}
Valor:     {{.Value}} {{.Currency}}

Último erro:
{{.LastError}}

O registro da compra está salvo; reenvie o evento manualmente ou aguarde o próximo ciclo após corrigir a causa.
`))

func NewAlertSender(cfg config.MailConfig) *AlertSender {
	return &AlertSender{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		From:     cfg.From,
		To:       cfg.AlertTo,
	}
}

func renderAlert(data AttributionAlertData) (string, error) {
	var body bytes.Buffer
	if err := alertTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("erro ao processar template: %w", err)
	}
	return body.String(), nil
}

func (s *AlertSender) SendAttributionAlert(data AttributionAlertData) error {
	body, err := renderAlert(data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("[funil] Atribuição Meta falhou: transação %s", data.TransactionID))
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}
