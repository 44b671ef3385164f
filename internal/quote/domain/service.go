package domain

import (
	"context"
	"errors"
	"time"

	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
)

type ItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	Position    int     `json:"position"`
}

type CreateQuoteRequest struct {
	ClientID       string      `json:"client_id"`
	Title          string      `json:"title"`
	Currency       string      `json:"currency"`
	Notes          string      `json:"notes"`
	PaymentMethod  string      `json:"payment_method"`
	PaymentDetails string      `json:"payment_details"`
	ValidUntil     *time.Time  `json:"valid_until,omitempty"`
	Items          []ItemInput `json:"items"`
}

type ListQuoteRequest struct {
	Status   *QuoteStatus
	ClientID *string
}

type ListQuoteResponse struct {
	Quotes []Quote `json:"quotes"`
}

type Service interface {
	Create(ctx context.Context, req CreateQuoteRequest) (Quote, error)
	List(ctx context.Context, req ListQuoteRequest) (ListQuoteResponse, error)
	GetByID(ctx context.Context, id string) (Quote, error)
}

// Lines converts quote items into the shared pricing shape.
func Lines(items []ItemInput) []invoicedomain.Line {
	lines := make([]invoicedomain.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, invoicedomain.Line{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			VATRate:   item.VATRate,
		})
	}
	return lines
}

var (
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidClient  = errors.New("invalid_client")
	ErrInvalidItems   = errors.New("invalid_items")
	ErrInvalidQuoteID = errors.New("invalid_quote_id")
	ErrNotFound       = errors.New("not_found")
)
