package mailer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Pradumn88/lms-college-site-sub000/config"

	"github.com/sirupsen/logrus"
)

func TestNewFallsBackToLogSender(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	s := New(config.SMTPConfig{}, log)
	if _, ok := s.(*LogSender); !ok {
		t.Fatalf("expected LogSender, got %T", s)
	}
	if err := s.Send(context.Background(), "a@b.co", "hi", "code 123456"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "code 123456") {
		t.Fatal("mail body must be logged")
	}

	if _, ok := New(config.SMTPConfig{Host: "smtp.local", Port: "25", From: "x@y.co"}, log).(*SMTPSender); !ok {
		t.Fatal("expected SMTP sender when configured")
	}
}

func TestTemplates(t *testing.T) {
	subject, body := OTPMessage("reset", "123456", 10)
	if !strings.Contains(subject, "Reset") || !strings.Contains(body, "123456") {
		t.Fatalf("unexpected reset mail %q %q", subject, body)
	}
	subject, body = ReceiptMessage("Go", "90.00", "USD", "p-1")
	if !strings.Contains(subject, "Go") || !strings.Contains(body, "90.00 USD") {
		t.Fatalf("unexpected receipt %q %q", subject, body)
	}
}
