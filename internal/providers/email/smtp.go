package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	appconfig "github.com/lucanori/invoicerr/internal/config"
	"go.uber.org/zap"
)

type smtpProvider struct {
	cfg appconfig.EmailConfig
	log *zap.Logger
}

// NewSMTPProvider returns a Provider backed by a plain SMTP relay.
func NewSMTPProvider(cfg appconfig.EmailConfig, log *zap.Logger) (Provider, error) {
	if cfg.SMTPHost == "" {
		return nil, errors.New("smtp host is empty")
	}
	if cfg.SMTPPort <= 0 {
		return nil, errors.New("smtp port must be positive")
	}
	return &smtpProvider{
		cfg: cfg,
		log: log.Named("email.smtp"),
	}, nil
}

func (p *smtpProvider) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("recipient is empty")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", p.cfg.SMTPFrom)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", p.cfg.SMTPHost, p.cfg.SMTPPort)
	var auth smtp.Auth
	if p.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", p.cfg.SMTPUsername, p.cfg.SMTPPassword, p.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, p.cfg.SMTPFrom, []string{to}, []byte(msg.String())); err != nil {
		p.log.Warn("smtp delivery failed",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("smtp send: %w", err)
	}

	p.log.Debug("email delivered", zap.String("to", to), zap.String("subject", subject))
	return nil
}
