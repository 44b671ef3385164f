package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds the duplicate-key retry loop around numbering.
// Two concurrent creates can both read the same highest number; the unique
// index on (company_id, number) rejects the loser, which retries.
const maxNumberAttempts = 3

// nextInvoiceNumber allocates the next sequential number for the company's
// current calendar year, formatted INV-{YYYY}-{NNNN}. Must run inside the
// same transaction as the invoice insert.
func (s *Service) nextInvoiceNumber(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, now time.Time) (string, error) {
	year := now.Year()
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	var latest string
	err := tx.WithContext(ctx).Raw(
		`SELECT number
		 FROM invoices
		 WHERE company_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY number DESC
		 LIMIT 1`+db.LockingClause(tx),
		companyID,
		yearStart,
		yearEnd,
	).Scan(&latest).Error
	if err != nil {
		return "", err
	}

	seq := 0
	if latest != "" {
		parsed, ok := parseSequence(latest)
		if !ok {
			// A malformed stored number must not block issuing. Fall back
			// to the row count for the year so the sequence keeps moving.
			s.log.Warn("malformed invoice number, falling back to row count",
				zap.String("number", latest),
				zap.Int64("company_id", int64(companyID)),
			)
			var count int64
			if err := tx.WithContext(ctx).Raw(
				`SELECT COUNT(*) FROM invoices
				 WHERE company_id = ? AND created_at >= ? AND created_at < ?`,
				companyID,
				yearStart,
				yearEnd,
			).Scan(&count).Error; err != nil {
				return "", err
			}
			seq = int(count)
		} else {
			seq = parsed
		}
	}

	return fmt.Sprintf("INV-%d-%04d", year, seq+1), nil
}

// parseSequence extracts the trailing sequence from INV-{YYYY}-{NNNN}.
func parseSequence(number string) (int, bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		return 0, false
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
