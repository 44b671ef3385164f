package email

import (
	appconfig "github.com/lucanori/invoicerr/internal/config"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProvideSender wires the invoice mailer when SMTP is configured. Without
// SMTP_HOST the sender stays nil and send operations report it unavailable.
func ProvideSender(cfg appconfig.Config, log *zap.Logger) (invoicedomain.Sender, error) {
	if cfg.Email.SMTPHost == "" {
		log.Warn("smtp not configured, invoice emails disabled")
		return nil, nil
	}
	provider, err := NewSMTPProvider(cfg.Email, log)
	if err != nil {
		return nil, err
	}
	return NewInvoiceMailer(provider, log), nil
}

var Module = fx.Module("providers.email",
	fx.Provide(ProvideSender),
)
