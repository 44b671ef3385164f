package domain

import "context"

// Sender delivers an invoice notification to the client. Implementations live
// under internal/providers.
type Sender interface {
	SendInvoice(ctx context.Context, invoice Invoice, recipient string) error
}
