package infra

import (
	"errors"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"gestormoto/internal/config"

	"github.com/jordan-wright/email"
)

var ErrSMTPNoConfigurado = errors.New("smtp no configurado")

// Mailer sends the closure reports. Without SMTP_HOST every send fails with
// ErrSMTPNoConfigurado and the reports stay on disk.
type Mailer struct {
	addr      string
	remitente string
	auth      smtp.Auth
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{remitente: fmt.Sprintf("%s <%s>", cfg.NombreTienda, cfg.SMTPUser)}
	if cfg.SMTPHost == "" {
		return m
	}
	m.addr = cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort)
	if cfg.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

func (m *Mailer) Configurado() bool { return m != nil && m.addr != "" }

// Enviar mails body to every comma-separated address in to, attaching the
// given files. Empty paths are skipped.
func (m *Mailer) Enviar(to, subject, body string, adjuntos ...string) error {
	if !m.Configurado() {
		return ErrSMTPNoConfigurado
	}
	e, err := m.componer(to, subject, body, adjuntos)
	if err != nil {
		return err
	}
	return e.Send(m.addr, m.auth)
}

func (m *Mailer) componer(to, subject, body string, adjuntos []string) (*email.Email, error) {
	e := email.NewEmail()
	e.From = m.remitente
	for _, dir := range strings.Split(to, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			e.To = append(e.To, dir)
		}
	}
	if len(e.To) == 0 {
		return nil, errors.New("mailer: sin destinatarios")
	}
	e.Subject = subject
	e.Text = []byte(body)
	for _, path := range adjuntos {
		if path == "" {
			continue
		}
		if _, err := e.AttachFile(path); err != nil {
			return nil, fmt.Errorf("mailer: adjuntar %s: %w", path, err)
		}
	}
	return e, nil
}
