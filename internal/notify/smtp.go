package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is one of mandatory, opportunistic or none.
	TLS     string
	Timeout time.Duration
}

// SMTPSender sends plain-text mail through one SMTP server.
type SMTPSender struct {
	client *mail.Client
	from   string
}

// NewSMTPSender builds a sender. No connection is made until the first send.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	opts := []mail.Option{mail.WithTLSPolicy(tlsPolicy(cfg.TLS))}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From}, nil
}

// Send delivers one plain-text message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := s.compose(to, subject, body)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Deliver implements Sink.
func (s *SMTPSender) Deliver(ctx context.Context, m Message) error {
	return s.Send(ctx, m.To, m.Subject, m.Body)
}

func (s *SMTPSender) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func tlsPolicy(s string) mail.TLSPolicy {
	switch strings.ToLower(s) {
	case "none", "off":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}
