package notify

import (
	"Go_Share/config"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// Mailer sends an upload notice over SMTP.
type Mailer struct {
	cfg config.NotifyConfig
}

func NewMailer(cfg config.NotifyConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) build(event Event) *email.Email {
	e := email.NewEmail()
	e.From = m.cfg.SMTPFrom
	e.To = append([]string(nil), m.cfg.MailTo...)
	e.Subject = fmt.Sprintf("New upload: %s", event.FileName)
	e.Text = []byte(fmt.Sprintf(
		"%s uploaded %s (%s, %d bytes)\n%s\n",
		event.UserName, event.FileName, event.Mimetype, event.Size, event.URL,
	))
	return e
}

func (m *Mailer) Notify(ctx context.Context, event Event) error {
	if m.cfg.SMTPHost == "" || m.cfg.SMTPPort == "" || m.cfg.SMTPFrom == "" {
		return errors.New("smtp config missing")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e := m.build(event)
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if m.cfg.SMTPTLS || m.cfg.SMTPPort == "465" {
		return e.SendWithTLS(addr, auth, &tls.Config{ServerName: m.cfg.SMTPHost})
	}
	return e.Send(addr, auth)
}
