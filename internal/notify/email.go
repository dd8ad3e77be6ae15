package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// ErrNoEmail is returned when the recipient has no e-mail address.
var ErrNoEmail = errors.New("recipient has no email address")

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier sends alerts as plain-text e-mail over SMTP with STARTTLS.
type EmailNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// Name implements Notifier.
func (n *EmailNotifier) Name() string { return "email" }

// Notify implements Notifier.
func (n *EmailNotifier) Notify(ctx context.Context, to Recipient, subject, body string) error {
	if to.Email == "" {
		return ErrNoEmail
	}

	addr := net.JoinHostPort(n.cfg.Server, strconv.Itoa(n.cfg.Port))
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Server)
	msg := n.compose(to.Email, subject, body)

	// smtp.SendMail has no context support; run it aside and honor the deadline.
	done := make(chan error, 1)
	go func() {
		done <- n.send(addr, auth, n.cfg.From, []string{to.Email}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to.Email, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", to.Email, ctx.Err())
	}
}

func (n *EmailNotifier) compose(recipient, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + n.cfg.From + "\r\n")
	b.WriteString("To: " + recipient + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n\r\nSent on: " + n.now().Format("2006-01-02 15:04:05") + "\r\n")
	return []byte(b.String())
}
