package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/companyctx"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
	"github.com/lucanori/invoicerr/pkg/db/option"
	"github.com/lucanori/invoicerr/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	repo repository.Repository[recurringdomain.RecurringInvoice]
}

func New(p Params) recurringdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("recurringinvoice.service"),
		genID: p.GenID,

		repo: repository.ProvideStore[recurringdomain.RecurringInvoice](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req recurringdomain.CreateRecurringInvoiceRequest) (recurringdomain.RecurringInvoice, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrInvalidCompany
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrInvalidClient
	}

	frequency, err := recurringdomain.ParseFrequency(req.Frequency)
	if err != nil {
		return recurringdomain.RecurringInvoice{}, err
	}

	if err := validateItems(req.Items); err != nil {
		return recurringdomain.RecurringInvoice{}, err
	}
	if req.Count != nil && *req.Count <= 0 {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrInvalidItems
	}

	nextDate := req.NextInvoiceDate.UTC()
	if nextDate.IsZero() {
		nextDate = midnight(time.Now().UTC())
	}

	var created recurringdomain.RecurringInvoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists snowflake.ID
		if err := tx.WithContext(ctx).Raw(
			`SELECT id FROM clients WHERE company_id = ? AND id = ? AND is_active = ?`,
			companyID,
			clientID,
			true,
		).Scan(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return recurringdomain.ErrInvalidClient
		}

		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = "EUR"
		}

		now := time.Now().UTC()
		definition := recurringdomain.RecurringInvoice{
			ID:              s.genID.Generate(),
			CompanyID:       companyID,
			ClientID:        clientID,
			Frequency:       frequency,
			NextInvoiceDate: nextDate,
			Until:           req.Until,
			Count:           req.Count,
			AutoSend:        req.AutoSend,
			Currency:        currency,
			PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
			PaymentDetails:  strings.TrimSpace(req.PaymentDetails),
			Notes:           strings.TrimSpace(req.Notes),
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		for _, input := range req.Items {
			definition.Items = append(definition.Items, recurringdomain.RecurringInvoiceItem{
				ID:                 s.genID.Generate(),
				RecurringInvoiceID: definition.ID,
				Description:        strings.TrimSpace(input.Description),
				Quantity:           input.Quantity,
				UnitPrice:          input.UnitPrice,
				VATRate:            input.VATRate,
				Position:           input.Position,
				CreatedAt:          now,
			})
		}

		if err := tx.WithContext(ctx).Create(&definition).Error; err != nil {
			return err
		}
		created = definition
		return nil
	})
	if err != nil {
		return recurringdomain.RecurringInvoice{}, err
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, req recurringdomain.UpdateRecurringInvoiceRequest) (recurringdomain.RecurringInvoice, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrInvalidCompany
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrInvalidID
	}

	if err := validateItems(req.Items); err != nil {
		return recurringdomain.RecurringInvoice{}, err
	}

	var updated recurringdomain.RecurringInvoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var definition recurringdomain.RecurringInvoice
		if err := tx.WithContext(ctx).
			Preload("Items").
			Where("company_id = ? AND id = ? AND is_active = ?", companyID, id, true).
			First(&definition).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return recurringdomain.ErrNotFound
			}
			return err
		}

		if raw := strings.TrimSpace(req.Frequency); raw != "" {
			frequency, err := recurringdomain.ParseFrequency(raw)
			if err != nil {
				return err
			}
			definition.Frequency = frequency
		}
		if req.NextInvoiceDate != nil {
			definition.NextInvoiceDate = req.NextInvoiceDate.UTC()
		}
		if req.Until != nil {
			definition.Until = req.Until
		}
		if req.Count != nil {
			if *req.Count <= 0 {
				return recurringdomain.ErrInvalidItems
			}
			definition.Count = req.Count
		}
		if req.AutoSend != nil {
			definition.AutoSend = *req.AutoSend
		}
		if v := strings.TrimSpace(req.PaymentMethod); v != "" {
			definition.PaymentMethod = v
		}
		if v := strings.TrimSpace(req.PaymentDetails); v != "" {
			definition.PaymentDetails = v
		}
		if v := strings.TrimSpace(req.Notes); v != "" {
			definition.Notes = v
		}
		definition.UpdatedAt = time.Now().UTC()

		if len(req.Items) > 0 {
			if err := tx.WithContext(ctx).Exec(
				`DELETE FROM recurring_invoice_items WHERE recurring_invoice_id = ?`,
				definition.ID,
			).Error; err != nil {
				return err
			}
			definition.Items = definition.Items[:0]
			now := definition.UpdatedAt
			for _, input := range req.Items {
				item := recurringdomain.RecurringInvoiceItem{
					ID:                 s.genID.Generate(),
					RecurringInvoiceID: definition.ID,
					Description:        strings.TrimSpace(input.Description),
					Quantity:           input.Quantity,
					UnitPrice:          input.UnitPrice,
					VATRate:            input.VATRate,
					Position:           input.Position,
					CreatedAt:          now,
				}
				if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
					return err
				}
				definition.Items = append(definition.Items, item)
			}
		}

		if err := tx.WithContext(ctx).Exec(
			`UPDATE recurring_invoices
			 SET frequency = ?, next_invoice_date = ?, until = ?, count = ?, auto_send = ?,
			     payment_method = ?, payment_details = ?, notes = ?, updated_at = ?
			 WHERE company_id = ? AND id = ?`,
			definition.Frequency,
			definition.NextInvoiceDate,
			definition.Until,
			definition.Count,
			definition.AutoSend,
			definition.PaymentMethod,
			definition.PaymentDetails,
			definition.Notes,
			definition.UpdatedAt,
			companyID,
			id,
		).Error; err != nil {
			return err
		}

		updated = definition
		return nil
	})
	if err != nil {
		return recurringdomain.RecurringInvoice{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return recurringdomain.ErrInvalidCompany
	}

	definitionID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || definitionID == 0 {
		return recurringdomain.ErrInvalidID
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE recurring_invoices SET is_active = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
		false,
		time.Now().UTC(),
		companyID,
		definitionID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recurringdomain.ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, req recurringdomain.ListRecurringInvoiceRequest) (recurringdomain.ListRecurringInvoiceResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return recurringdomain.ListRecurringInvoiceResponse{}, recurringdomain.ErrInvalidCompany
	}

	filter := &recurringdomain.RecurringInvoice{CompanyID: companyID, IsActive: true}
	if req.ClientID != nil {
		clientID, err := snowflake.ParseString(strings.TrimSpace(*req.ClientID))
		if err != nil || clientID == 0 {
			return recurringdomain.ListRecurringInvoiceResponse{}, recurringdomain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}

	items, err := s.repo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
		option.WithPreload("Items"),
	)
	if err != nil {
		return recurringdomain.ListRecurringInvoiceResponse{}, err
	}

	definitions := make([]recurringdomain.RecurringInvoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		definitions = append(definitions, *item)
	}

	return recurringdomain.ListRecurringInvoiceResponse{RecurringInvoices: definitions}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (recurringdomain.RecurringInvoice, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrInvalidCompany
	}

	definitionID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || definitionID == 0 {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrInvalidID
	}

	item, err := s.repo.FindOne(ctx, &recurringdomain.RecurringInvoice{ID: definitionID, CompanyID: companyID},
		option.WithPreload("Items"),
	)
	if err != nil {
		return recurringdomain.RecurringInvoice{}, err
	}
	if item == nil {
		return recurringdomain.RecurringInvoice{}, recurringdomain.ErrNotFound
	}

	return *item, nil
}

func validateItems(items []recurringdomain.ItemInput) error {
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice < 0 || item.VATRate < 0 {
			return recurringdomain.ErrInvalidItems
		}
	}
	return nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
