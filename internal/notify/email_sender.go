package notify

import (
	"log"
	"time"

	gomail "gopkg.in/mail.v2"
)

// EmailConfig holds SMTP configuration for sending the digest.
type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string
	ToEmails  []string
}

// EmailSender delivers messages via SMTP with STARTTLS.
type EmailSender struct {
	cfg EmailConfig
}

// NewEmailSender creates a sender with the given SMTP configuration.
func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

// Send delivers an email with HTML body and plain text fallback.
func (s *EmailSender) Send(msg *RenderedMessage) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.ToEmails...)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	dialer := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	dialer.StartTLSPolicy = gomail.MandatoryStartTLS
	dialer.Timeout = 60 * time.Second

	if err := dialer.DialAndSend(m); err != nil {
		log.Printf("Email error: failed to send to %v (Subject: %s): %v", s.cfg.ToEmails, msg.Subject, err)
		return err
	}

	log.Printf("Email sent: %s", msg.Subject)
	return nil
}
