package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	authcore "github.com/casekit/authcore"
)

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	// Addr is host:port of the SMTP server.
	Addr string
	// From is the envelope and header sender address.
	From string
	// Username and Password enable PLAIN auth when Username is non-empty.
	Username string
	Password string
}

// SMTP delivers messages through a single SMTP server.
type SMTP struct {
	config SMTPConfig
}

// NewSMTP validates cfg and returns the transport.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Addr == "" {
		return nil, errors.New("smtp addr required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address required")
	}
	return &SMTP{config: cfg}, nil
}

// Send implements [authcore.Mailer].
func (s *SMTP) Send(ctx context.Context, msg authcore.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("message has no recipient")
	}

	var auth smtp.Auth
	if s.config.Username != "" {
		host, _, found := strings.Cut(s.config.Addr, ":")
		if !found {
			host = s.config.Addr
		}
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, host)
	}

	payload := formatMessage(s.config.From, msg)
	if err := smtp.SendMail(s.config.Addr, auth, s.config.From, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// formatMessage renders the minimal RFC 5322 form: headers, blank line,
// body with CRLF line endings.
func formatMessage(from string, msg authcore.Message) []byte {
	var b strings.Builder
	b.Grow(len(msg.Body) + 256)

	b.WriteString("From: ")
	b.WriteString(from)
	b.WriteString("\r\n")
	b.WriteString("To: ")
	b.WriteString(msg.To)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(sanitizeHeader(msg.Subject))
	b.WriteString("\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")

	return []byte(b.String())
}

// sanitizeHeader strips CR/LF so message fields cannot inject headers.
func sanitizeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.ReplaceAll(v, "\n", " ")
}
