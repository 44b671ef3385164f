package guard

import (
	"errors"
	"time"
)

var (
	ErrDefinitionNotDue = errors.New("definition_not_due")
	ErrWindowClosed     = errors.New("definition_window_closed")
)

// EnsureDefinitionCanGenerate re-checks due-ness on the claimed row. The
// fetch query already filters, but rows can be advanced between claim and
// processing by a competing node.
func EnsureDefinitionCanGenerate(nextInvoiceDate time.Time, until *time.Time, today time.Time) error {
	if nextInvoiceDate.After(today) {
		return ErrDefinitionNotDue
	}
	if until != nil && until.Before(today) {
		return ErrWindowClosed
	}
	return nil
}
