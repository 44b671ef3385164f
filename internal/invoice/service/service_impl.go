package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/clock"
	"github.com/lucanori/invoicerr/internal/companyctx"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	"github.com/lucanori/invoicerr/pkg/db"
	"github.com/lucanori/invoicerr/pkg/db/option"
	"github.com/lucanori/invoicerr/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultDueDays = 14

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Sender invoicedomain.Sender `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID  *snowflake.Node
	clock  clock.Clock
	sender invoicedomain.Sender

	invoicerepo repository.Repository[invoicedomain.Invoice]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("invoice.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		sender: p.Sender,

		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
	}

	if err := validateItems(req.Items); err != nil {
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now().UTC()
	dueAt := now.AddDate(0, 0, defaultDueDays)
	if req.DueAt != nil {
		dueAt = req.DueAt.UTC()
	}

	var quoteID *snowflake.ID
	if raw := strings.TrimSpace(req.QuoteID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return invoicedomain.Invoice{}, invoicedomain.ErrQuoteNotFound
		}
		quoteID = &id
	}
	var recurringID *snowflake.ID
	if raw := strings.TrimSpace(req.RecurringInvoiceID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err == nil && id != 0 {
			recurringID = &id
		}
	}

	var created invoicedomain.Invoice
	for attempt := 1; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			client, err := s.loadClient(ctx, tx, companyID, clientID)
			if err != nil {
				return err
			}
			if client == nil {
				return invoicedomain.ErrInvalidClient
			}

			currency := strings.ToUpper(strings.TrimSpace(req.Currency))
			if currency == "" {
				currency = client.Currency
			}
			if currency == "" {
				currency = "EUR"
			}

			number, err := s.nextInvoiceNumber(ctx, tx, companyID, now)
			if err != nil {
				return err
			}

			totals := invoicedomain.ComputeTotals(linesFromInputs(req.Items))
			invoiceID := s.genID.Generate()
			invoice := invoicedomain.Invoice{
				ID:                 invoiceID,
				CompanyID:          companyID,
				ClientID:           clientID,
				QuoteID:            quoteID,
				RecurringInvoiceID: recurringID,
				Number:             number,
				Status:             invoicedomain.InvoiceStatusDraft,
				Currency:           currency,
				Notes:              strings.TrimSpace(req.Notes),
				PaymentMethod:      strings.TrimSpace(req.PaymentMethod),
				PaymentDetails:     strings.TrimSpace(req.PaymentDetails),
				TotalHT:            totals.TotalHT,
				TotalVAT:           totals.TotalVAT,
				TotalTTC:           totals.TotalTTC,
				IsActive:           true,
				DueAt:              dueAt,
				Metadata:           datatypes.JSONMap{},
				CreatedAt:          now,
				UpdatedAt:          now,
			}

			if err := s.insertInvoice(ctx, tx, invoice); err != nil {
				return err
			}

			for _, input := range req.Items {
				item := invoicedomain.InvoiceItem{
					ID:          s.genID.Generate(),
					InvoiceID:   invoiceID,
					Description: strings.TrimSpace(input.Description),
					Quantity:    input.Quantity,
					UnitPrice:   input.UnitPrice,
					VATRate:     input.VATRate,
					Position:    input.Position,
					CreatedAt:   now,
				}
				if err := s.insertItem(ctx, tx, item); err != nil {
					return err
				}
				invoice.Items = append(invoice.Items, item)
			}

			created = invoice
			return nil
		})
		if err == nil {
			return created, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return invoicedomain.Invoice{}, err
		}
		if attempt >= maxNumberAttempts {
			s.log.Error("invoice number allocation kept colliding",
				zap.Int64("company_id", int64(companyID)),
				zap.Int("attempts", attempt),
			)
			return invoicedomain.Invoice{}, invoicedomain.ErrNumberExhausted
		}
	}
}

func (s *Service) Update(ctx context.Context, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	if err := validateItems(req.Items); err != nil {
		return invoicedomain.Invoice{}, err
	}

	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceForUpdate(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if invoice == nil || !invoice.IsActive {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return invoicedomain.ErrInvoicePaid
		}

		if raw := strings.TrimSpace(req.ClientID); raw != "" {
			clientID, err := snowflake.ParseString(raw)
			if err != nil || clientID == 0 {
				return invoicedomain.ErrInvalidClient
			}
			if clientID != invoice.ClientID {
				client, err := s.loadClient(ctx, tx, companyID, clientID)
				if err != nil {
					return err
				}
				if client == nil {
					return invoicedomain.ErrInvalidClient
				}
				invoice.ClientID = clientID
			}
		}

		if err := s.reconcileItems(ctx, tx, invoice.ID, req.Items); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		totals := invoicedomain.ComputeTotals(linesFromInputs(req.Items))
		invoice.TotalHT = totals.TotalHT
		invoice.TotalVAT = totals.TotalVAT
		invoice.TotalTTC = totals.TotalTTC
		if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != "" {
			invoice.Currency = currency
		}
		invoice.Notes = strings.TrimSpace(req.Notes)
		invoice.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
		invoice.PaymentDetails = strings.TrimSpace(req.PaymentDetails)
		if req.DueAt != nil {
			invoice.DueAt = req.DueAt.UTC()
		}
		invoice.UpdatedAt = now

		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET client_id = ?, currency = ?, notes = ?, payment_method = ?, payment_details = ?,
			     total_ht = ?, total_vat = ?, total_ttc = ?, due_at = ?, updated_at = ?
			 WHERE company_id = ? AND id = ?`,
			invoice.ClientID,
			invoice.Currency,
			invoice.Notes,
			invoice.PaymentMethod,
			invoice.PaymentDetails,
			invoice.TotalHT,
			invoice.TotalVAT,
			invoice.TotalTTC,
			invoice.DueAt,
			invoice.UpdatedAt,
			companyID,
			id,
		).Error; err != nil {
			return err
		}

		items, err := s.loadItems(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		invoice.Items = items
		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

// reconcileItems applies a three-way diff between the stored items and the
// incoming list: inputs carrying a known ID update the row, inputs without an
// ID insert a new row, and stored rows absent from the input are deleted.
func (s *Service) reconcileItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, inputs []invoicedomain.ItemInput) error {
	existing, err := s.loadItems(ctx, tx, invoiceID)
	if err != nil {
		return err
	}

	existingByID := make(map[snowflake.ID]invoicedomain.InvoiceItem, len(existing))
	for _, item := range existing {
		existingByID[item.ID] = item
	}

	seen := make(map[snowflake.ID]bool, len(inputs))
	now := s.clock.Now().UTC()
	for _, input := range inputs {
		var itemID snowflake.ID
		if raw := strings.TrimSpace(input.ID); raw != "" {
			if parsed, err := snowflake.ParseString(raw); err == nil {
				itemID = parsed
			}
		}

		if _, ok := existingByID[itemID]; ok && itemID != 0 {
			seen[itemID] = true
			if err := tx.WithContext(ctx).Exec(
				`UPDATE invoice_items
				 SET description = ?, quantity = ?, unit_price = ?, vat_rate = ?, position = ?
				 WHERE invoice_id = ? AND id = ?`,
				strings.TrimSpace(input.Description),
				input.Quantity,
				input.UnitPrice,
				input.VATRate,
				input.Position,
				invoiceID,
				itemID,
			).Error; err != nil {
				return err
			}
			continue
		}

		if err := s.insertItem(ctx, tx, invoicedomain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			VATRate:     input.VATRate,
			Position:    input.Position,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
	}

	for _, item := range existing {
		if seen[item.ID] {
			continue
		}
		if err := tx.WithContext(ctx).Exec(
			`DELETE FROM invoice_items WHERE invoice_id = ? AND id = ?`,
			invoiceID,
			item.ID,
		).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return err
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return invoicedomain.ErrInvalidInvoiceID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceForUpdate(ctx, tx, companyID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		return tx.WithContext(ctx).Exec(
			`UPDATE invoices SET is_active = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
			false,
			s.clock.Now().UTC(),
			companyID,
			invoiceID,
		).Error
	})
}

func (s *Service) MarkAsPaid(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, func(invoice *invoicedomain.Invoice, now time.Time) error {
		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return invoicedomain.ErrInvoicePaid
		}
		invoice.Status = invoicedomain.InvoiceStatusPaid
		invoice.PaidAt = &now
		return nil
	})
}

func (s *Service) MarkAsSent(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, func(invoice *invoicedomain.Invoice, now time.Time) error {
		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return invoicedomain.ErrInvoicePaid
		}
		if invoice.Status == invoicedomain.InvoiceStatusDraft {
			invoice.Status = invoicedomain.InvoiceStatusSent
		}
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id string, apply func(*invoicedomain.Invoice, time.Time) error) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var result invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceForUpdate(ctx, tx, companyID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil || !invoice.IsActive {
			return invoicedomain.ErrInvoiceNotFound
		}

		now := s.clock.Now().UTC()
		if err := apply(invoice, now); err != nil {
			return err
		}
		invoice.UpdatedAt = now

		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoices SET status = ?, paid_at = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
			invoice.Status,
			invoice.PaidAt,
			invoice.UpdatedAt,
			companyID,
			invoiceID,
		).Error; err != nil {
			return err
		}

		items, err := s.loadItems(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		invoice.Items = items
		result = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return result, nil
}

func (s *Service) SendByEmail(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	if s.sender == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrSenderMissing
	}

	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	client, err := s.loadClient(ctx, s.db, companyID, invoice.ClientID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if client == nil || client.Email == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
	}

	if err := s.sender.SendInvoice(ctx, invoice, client.Email); err != nil {
		return invoicedomain.Invoice{}, err
	}

	return s.MarkAsSent(ctx, id)
}

func (s *Service) CreateFromQuote(ctx context.Context, quoteID string) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	id, err := snowflake.ParseString(strings.TrimSpace(quoteID))
	if err != nil || id == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrQuoteNotFound
	}

	quote, err := s.loadQuote(ctx, s.db, companyID, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if quote == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrQuoteNotFound
	}

	quoteItems, err := s.loadQuoteItems(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	items := make([]invoicedomain.ItemInput, 0, len(quoteItems))
	for _, item := range quoteItems {
		items = append(items, invoicedomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Position:    item.Position,
		})
	}

	return s.Create(ctx, invoicedomain.CreateInvoiceRequest{
		ClientID:       quote.ClientID.String(),
		QuoteID:        quote.ID.String(),
		Currency:       quote.Currency,
		Notes:          quote.Notes,
		PaymentMethod:  quote.PaymentMethod,
		PaymentDetails: quote.PaymentDetails,
		Items:          items,
	})
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	filter := &invoicedomain.Invoice{CompanyID: companyID, IsActive: true}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.ClientID != nil {
		clientID, err := snowflake.ParseString(strings.TrimSpace(*req.ClientID))
		if err != nil || clientID == 0 {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}
	if req.Number != nil {
		filter.Number = strings.TrimSpace(*req.Number)
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	}
	if req.CreatedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    *req.CreatedFrom,
		}))
	}
	if req.CreatedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LTE,
			Value:    *req.CreatedTo,
		}))
	}
	if req.DueFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_at",
			Operator: option.GTE,
			Value:    *req.DueFrom,
		}))
	}
	if req.DueTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_at",
			Operator: option.LTE,
			Value:    *req.DueTo,
		}))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return invoicedomain.ListInvoiceResponse{Invoices: invoices}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	companyID, err := s.companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	// Soft-deleted invoices stay readable by ID.
	item, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID, CompanyID: companyID})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}

	items, err := s.loadItems(ctx, s.db, item.ID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	item.Items = items

	return *item, nil
}

func (s *Service) companyIDFromContext(ctx context.Context) (snowflake.ID, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return 0, invoicedomain.ErrInvalidCompany
	}
	return companyID, nil
}

func validateItems(items []invoicedomain.ItemInput) error {
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice < 0 || item.VATRate < 0 {
			return invoicedomain.ErrInvalidItems
		}
	}
	return nil
}

func linesFromInputs(items []invoicedomain.ItemInput) []invoicedomain.Line {
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

type clientRow struct {
	ID       snowflake.ID
	Email    string
	Currency string
}

type quoteRow struct {
	ID             snowflake.ID
	ClientID       snowflake.ID
	Currency       string
	Notes          string
	PaymentMethod  string
	PaymentDetails string
}

type quoteItemRow struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	VATRate     float64
	Position    int
}

func (s *Service) loadClient(ctx context.Context, tx *gorm.DB, companyID, clientID snowflake.ID) (*clientRow, error) {
	var client clientRow
	err := tx.WithContext(ctx).Raw(
		`SELECT id, email, currency
		 FROM clients
		 WHERE company_id = ? AND id = ? AND is_active = ?`,
		companyID,
		clientID,
		true,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (s *Service) loadQuote(ctx context.Context, tx *gorm.DB, companyID, quoteID snowflake.ID) (*quoteRow, error) {
	var quote quoteRow
	err := tx.WithContext(ctx).Raw(
		`SELECT id, client_id, currency, notes, payment_method, payment_details
		 FROM quotes
		 WHERE company_id = ? AND id = ?`,
		companyID,
		quoteID,
	).Scan(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, nil
	}
	return &quote, nil
}

func (s *Service) loadQuoteItems(ctx context.Context, tx *gorm.DB, quoteID snowflake.ID) ([]quoteItemRow, error) {
	var items []quoteItemRow
	err := tx.WithContext(ctx).Raw(
		`SELECT description, quantity, unit_price, vat_rate, position
		 FROM quote_items
		 WHERE quote_id = ?
		 ORDER BY position, id`,
		quoteID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) loadInvoiceForUpdate(ctx context.Context, tx *gorm.DB, companyID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := tx.WithContext(ctx).Raw(
		`SELECT id, company_id, client_id, quote_id, recurring_invoice_id, number, status,
		        currency, notes, payment_method, payment_details,
		        total_ht, total_vat, total_ttc, is_active, due_at, paid_at,
		        created_at, updated_at
		 FROM invoices
		 WHERE company_id = ? AND id = ?`+db.LockingClause(tx),
		companyID,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (s *Service) loadItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]invoicedomain.InvoiceItem, error) {
	var items []invoicedomain.InvoiceItem
	err := tx.WithContext(ctx).Raw(
		`SELECT id, invoice_id, description, quantity, unit_price, vat_rate, position, created_at
		 FROM invoice_items
		 WHERE invoice_id = ?`,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (s *Service) insertInvoice(ctx context.Context, tx *gorm.DB, invoice invoicedomain.Invoice) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, company_id, client_id, quote_id, recurring_invoice_id, number, status,
			currency, notes, payment_method, payment_details,
			total_ht, total_vat, total_ttc, is_active, due_at, paid_at, metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.CompanyID,
		invoice.ClientID,
		invoice.QuoteID,
		invoice.RecurringInvoiceID,
		invoice.Number,
		invoice.Status,
		invoice.Currency,
		invoice.Notes,
		invoice.PaymentMethod,
		invoice.PaymentDetails,
		invoice.TotalHT,
		invoice.TotalVAT,
		invoice.TotalTTC,
		invoice.IsActive,
		invoice.DueAt,
		invoice.PaidAt,
		invoice.Metadata,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (s *Service) insertItem(ctx context.Context, tx *gorm.DB, item invoicedomain.InvoiceItem) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO invoice_items (
			id, invoice_id, description, quantity, unit_price, vat_rate, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.InvoiceID,
		item.Description,
		item.Quantity,
		item.UnitPrice,
		item.VATRate,
		item.Position,
		item.CreatedAt,
	).Error
}
