package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned by Send when no transport host or sender is set.
var ErrNotConfigured = errors.New("email service is not configured")

// Sender sends a message and returns the transport receipt (the Message-ID).
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	// From is the envelope sender and the service address for acknowledgments
	From    string
	Timeout time.Duration
	// ImplicitTLS wraps the connection in TLS before the greeting. Set for port 465.
	ImplicitTLS bool
	// TLSConfig overrides the client TLS settings, mostly for tests
	TLSConfig *tls.Config
}

// SMTPSender handles sending emails via SMTP
type SMTPSender struct {
	cfg    SMTPConfig
	dialer net.Dialer
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Port == "465" {
		cfg.ImplicitTLS = true
	}
	return &SMTPSender{cfg: cfg}
}

// IsConfigured checks if the sender has enough configuration to attempt a send
func (s *SMTPSender) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

// Send delivers msg over one SMTP session, either over implicit TLS or after
// a mandatory STARTTLS upgrade. Credentials never cross a plaintext link.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) (string, error) {
	if !s.IsConfigured() {
		return "", ErrNotConfigured
	}
	if msg.ID == "" {
		msg.ID = newMessageID(s.cfg.From)
	}
	raw, err := msg.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	var c *smtp.Client
	if s.cfg.ImplicitTLS {
		c = smtp.NewClient(tls.Client(conn, s.tlsConfig()))
	} else {
		c, err = smtp.NewClientStartTLS(conn, s.tlsConfig())
		if err != nil {
			_ = conn.Close()
			return "", fmt.Errorf("starttls failed: %w", err)
		}
	}
	defer c.Close()

	if s.cfg.Username != "" && s.cfg.Password != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return "", errors.New("smtp server does not support AUTH")
		}
		if err := c.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
			return "", fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := c.Mail(s.cfg.From, nil); err != nil {
		return "", fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return "", fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := bytes.NewReader(raw).WriteTo(w); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("message not accepted: %w", err)
	}

	// The message is queued once DATA is accepted, a failed QUIT changes nothing
	_ = c.Quit()

	return msg.ID, nil
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	if s.cfg.TLSConfig != nil {
		return s.cfg.TLSConfig
	}
	return &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
}

func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.Trim(from[at+1:], "<> ")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
