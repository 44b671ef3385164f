package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
	"github.com/lucanori/invoicerr/pkg/db"
)

// workDefinition is the claimable slice of a recurring definition.
type workDefinition struct {
	ID              snowflake.ID
	CompanyID       snowflake.ID
	ClientID        snowflake.ID
	Frequency       recurringdomain.Frequency
	NextInvoiceDate time.Time
	LastInvoiceDate *time.Time
	Until           *time.Time
	Count           *int
	AutoSend        bool
	Currency        string
	PaymentMethod   string
	PaymentDetails  string
	Notes           string
}

type workItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	VATRate     float64
	Position    int
}

// fetchDueDefinitions claims a batch of due definitions. Keyset pagination on
// id keeps a single pass over the due set even as rows are advanced, so a
// definition processed earlier in the run can never be claimed twice.
func (s *Scheduler) fetchDueDefinitions(ctx context.Context, today time.Time, afterID snowflake.ID, limit int) ([]workDefinition, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	var definitions []workDefinition
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, company_id, client_id, frequency, next_invoice_date, last_invoice_date,
		        until, count, auto_send, currency, payment_method, payment_details, notes
		 FROM recurring_invoices
		 WHERE is_active = ?
		   AND next_invoice_date <= ?
		   AND (until IS NULL OR until >= ?)
		   AND id > ?
		 ORDER BY id
		 LIMIT ?`+db.SkipLockedClause(s.db),
		true,
		today,
		today,
		afterID,
		limit,
	).Scan(&definitions).Error
	if err != nil {
		return nil, err
	}
	return definitions, nil
}

// countGeneratedInvoices counts every invoice ever materialized from the
// definition, soft-deleted ones included. The lifetime cap is about how many
// times the definition fired, not how many invoices survived.
func (s *Scheduler) countGeneratedInvoices(ctx context.Context, definitionID snowflake.ID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoices WHERE recurring_invoice_id = ?`,
		definitionID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Scheduler) loadDefinitionItems(ctx context.Context, definitionID snowflake.ID) ([]workItem, error) {
	var items []workItem
	err := s.db.WithContext(ctx).Raw(
		`SELECT description, quantity, unit_price, vat_rate, position
		 FROM recurring_invoice_items
		 WHERE recurring_invoice_id = ?
		 ORDER BY position, id`,
		definitionID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// advanceSchedule moves the definition to its next occurrence and records the
// generation date. Runs after the invoice exists, so a crash between the two
// writes re-generates rather than skips.
func (s *Scheduler) advanceSchedule(ctx context.Context, definitionID snowflake.ID, next, generatedOn time.Time) error {
	return s.db.WithContext(ctx).Exec(
		`UPDATE recurring_invoices
		 SET next_invoice_date = ?, last_invoice_date = ?, updated_at = ?
		 WHERE id = ?`,
		next,
		generatedOn,
		time.Now().UTC(),
		definitionID,
	).Error
}
