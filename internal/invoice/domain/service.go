package domain

import (
	"context"
	"errors"
	"time"
)

// ItemInput is an incoming line item. ID is set only on edits, for items that
// already exist on the invoice.
type ItemInput struct {
	ID          string  `json:"id,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	Position    int     `json:"position"`
}

type CreateInvoiceRequest struct {
	ClientID           string      `json:"client_id"`
	QuoteID            string      `json:"quote_id,omitempty"`
	RecurringInvoiceID string      `json:"-"`
	Currency           string      `json:"currency"`
	Notes              string      `json:"notes"`
	PaymentMethod      string      `json:"payment_method"`
	PaymentDetails     string      `json:"payment_details"`
	DueAt              *time.Time  `json:"due_at,omitempty"`
	Items              []ItemInput `json:"items"`
}

type UpdateInvoiceRequest struct {
	ID             string      `json:"-"`
	ClientID       string      `json:"client_id"`
	Currency       string      `json:"currency"`
	Notes          string      `json:"notes"`
	PaymentMethod  string      `json:"payment_method"`
	PaymentDetails string      `json:"payment_details"`
	DueAt          *time.Time  `json:"due_at,omitempty"`
	Items          []ItemInput `json:"items"`
}

type ListInvoiceRequest struct {
	Status      *InvoiceStatus
	ClientID    *string
	Number      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DueFrom     *time.Time
	DueTo       *time.Time
}

type ListInvoiceResponse struct {
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, id string) error
	MarkAsPaid(ctx context.Context, id string) (Invoice, error)
	MarkAsSent(ctx context.Context, id string) (Invoice, error)
	SendByEmail(ctx context.Context, id string) (Invoice, error)
	CreateFromQuote(ctx context.Context, quoteID string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
}

var (
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrInvalidItems     = errors.New("invalid_items")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrInvoicePaid      = errors.New("invoice_paid")
	ErrQuoteNotFound    = errors.New("quote_not_found")
	ErrNumberExhausted  = errors.New("invoice_number_exhausted")
	ErrSenderMissing    = errors.New("sender_unavailable")
)
