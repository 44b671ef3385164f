package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var invoiceTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// InvoiceMailer renders and delivers invoice notifications. It implements
// invoicedomain.Sender.
type InvoiceMailer struct {
	provider Provider
	log      *zap.Logger
}

func NewInvoiceMailer(provider Provider, log *zap.Logger) *InvoiceMailer {
	return &InvoiceMailer{
		provider: provider,
		log:      log.Named("email.invoice_mailer"),
	}
}

func (m *InvoiceMailer) SendInvoice(ctx context.Context, invoice invoicedomain.Invoice, recipient string) error {
	var body bytes.Buffer
	if err := invoiceTemplates.ExecuteTemplate(&body, "invoice_new.html", invoice); err != nil {
		return fmt.Errorf("render invoice email: %w", err)
	}

	subject := fmt.Sprintf("Invoice %s", invoice.Number)
	if err := m.provider.Send(ctx, recipient, subject, body.String()); err != nil {
		return err
	}

	m.log.Info("invoice email sent",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
	)
	return nil
}
