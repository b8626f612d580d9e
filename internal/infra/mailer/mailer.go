package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Pradumn88/lms-college-site-sub000/config"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	return e.Send(addr, auth)
}

// LogSender writes mails to the log. Used when SMTP is not configured.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(body)
	return nil
}

// New picks SMTP when configured, the log sender otherwise.
func New(cfg config.SMTPConfig, log logrus.FieldLogger) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	log.Warn("SMTP not configured, emails will be logged")
	return NewLogSender(log)
}
