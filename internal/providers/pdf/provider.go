package pdf

import (
	"context"

	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
)

// Document is a rendered PDF ready to stream to the caller.
type Document struct {
	Filename string
	Content  []byte
}

// Generator renders invoices as PDF documents.
type Generator interface {
	InvoicePDF(ctx context.Context, invoice invoicedomain.Invoice, client clientdomain.Client, company companydomain.Company) (Document, error)
}
