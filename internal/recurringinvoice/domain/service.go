package domain

import (
	"context"
	"errors"
	"time"
)

type ItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	Position    int     `json:"position"`
}

type CreateRecurringInvoiceRequest struct {
	ClientID        string      `json:"client_id"`
	Frequency       string      `json:"frequency"`
	NextInvoiceDate time.Time   `json:"next_invoice_date"`
	Until           *time.Time  `json:"until,omitempty"`
	Count           *int        `json:"count,omitempty"`
	AutoSend        bool        `json:"auto_send"`
	Currency        string      `json:"currency"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentDetails  string      `json:"payment_details"`
	Notes           string      `json:"notes"`
	Items           []ItemInput `json:"items"`
}

type UpdateRecurringInvoiceRequest struct {
	ID              string      `json:"-"`
	Frequency       string      `json:"frequency"`
	NextInvoiceDate *time.Time  `json:"next_invoice_date,omitempty"`
	Until           *time.Time  `json:"until,omitempty"`
	Count           *int        `json:"count,omitempty"`
	AutoSend        *bool       `json:"auto_send,omitempty"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentDetails  string      `json:"payment_details"`
	Notes           string      `json:"notes"`
	Items           []ItemInput `json:"items"`
}

type ListRecurringInvoiceRequest struct {
	ClientID *string
}

type ListRecurringInvoiceResponse struct {
	RecurringInvoices []RecurringInvoice `json:"recurring_invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateRecurringInvoiceRequest) (RecurringInvoice, error)
	Update(ctx context.Context, req UpdateRecurringInvoiceRequest) (RecurringInvoice, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req ListRecurringInvoiceRequest) (ListRecurringInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (RecurringInvoice, error)
}

var (
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidFrequency = errors.New("invalid_frequency")
	ErrInvalidItems     = errors.New("invalid_items")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
