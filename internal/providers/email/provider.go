package email

import "context"

// Provider delivers a rendered message to a recipient.
type Provider interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
