// Package mail sends the submission notices a form's owner asks for in
// notificationEmails.
package mail

import (
	"fmt"
	"strings"

	"formulate-backend/src/config"
	"formulate-backend/src/logger"

	gomail "gopkg.in/gomail.v2"
)

type MailSender interface {
	Send(to, subject, html string) error
}

type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPSender reports every missing setting at once.
func NewSMTPSender(host string, port int, user, pass, from string) (*SMTPSender, error) {
	var missing []string
	if host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if port == 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if from == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing SMTP env: %s", strings.Join(missing, ", "))
	}
	return &SMTPSender{Host: host, Port: port, User: user, Pass: pass, From: from}, nil
}

// FromConfig returns the SMTP sender, or nil when SMTP_HOST is unset or the
// settings are incomplete.
func FromConfig(cfg config.Config) MailSender {
	if cfg.SMTPHost == "" {
		return nil
	}
	sender, err := NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	if err != nil {
		logger.WithError(err).Warn("⚠️ notification emails disabled")
		return nil
	}
	return sender
}

func (s *SMTPSender) Send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	return d.DialAndSend(m)
}
