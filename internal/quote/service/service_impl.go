package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/companyctx"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	quotedomain "github.com/lucanori/invoicerr/internal/quote/domain"
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

	quoterepo repository.Repository[quotedomain.Quote]
}

func New(p Params) quotedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("quote.service"),
		genID: p.GenID,

		quoterepo: repository.ProvideStore[quotedomain.Quote](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req quotedomain.CreateQuoteRequest) (quotedomain.Quote, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return quotedomain.Quote{}, quotedomain.ErrInvalidCompany
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return quotedomain.Quote{}, quotedomain.ErrInvalidClient
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 || item.VATRate < 0 {
			return quotedomain.Quote{}, quotedomain.ErrInvalidItems
		}
	}

	var created quotedomain.Quote
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
			return quotedomain.ErrInvalidClient
		}

		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = "EUR"
		}

		now := time.Now().UTC()
		totals := invoicedomain.ComputeTotals(quotedomain.Lines(req.Items))
		quoteID := s.genID.Generate()
		quote := quotedomain.Quote{
			ID:             quoteID,
			CompanyID:      companyID,
			ClientID:       clientID,
			Title:          strings.TrimSpace(req.Title),
			Status:         quotedomain.QuoteStatusDraft,
			Currency:       currency,
			Notes:          strings.TrimSpace(req.Notes),
			PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
			PaymentDetails: strings.TrimSpace(req.PaymentDetails),
			TotalHT:        totals.TotalHT,
			TotalVAT:       totals.TotalVAT,
			TotalTTC:       totals.TotalTTC,
			ValidUntil:     req.ValidUntil,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO quotes (
				id, company_id, client_id, title, status, currency, notes,
				payment_method, payment_details, total_ht, total_vat, total_ttc,
				valid_until, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			quote.ID,
			quote.CompanyID,
			quote.ClientID,
			quote.Title,
			quote.Status,
			quote.Currency,
			quote.Notes,
			quote.PaymentMethod,
			quote.PaymentDetails,
			quote.TotalHT,
			quote.TotalVAT,
			quote.TotalTTC,
			quote.ValidUntil,
			quote.CreatedAt,
			quote.UpdatedAt,
		).Error; err != nil {
			return err
		}

		for _, input := range req.Items {
			item := quotedomain.QuoteItem{
				ID:          s.genID.Generate(),
				QuoteID:     quoteID,
				Description: strings.TrimSpace(input.Description),
				Quantity:    input.Quantity,
				UnitPrice:   input.UnitPrice,
				VATRate:     input.VATRate,
				Position:    input.Position,
				CreatedAt:   now,
			}
			if err := tx.WithContext(ctx).Exec(
				`INSERT INTO quote_items (
					id, quote_id, description, quantity, unit_price, vat_rate, position, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID,
				item.QuoteID,
				item.Description,
				item.Quantity,
				item.UnitPrice,
				item.VATRate,
				item.Position,
				item.CreatedAt,
			).Error; err != nil {
				return err
			}
			quote.Items = append(quote.Items, item)
		}

		created = quote
		return nil
	})
	if err != nil {
		return quotedomain.Quote{}, err
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, req quotedomain.ListQuoteRequest) (quotedomain.ListQuoteResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return quotedomain.ListQuoteResponse{}, quotedomain.ErrInvalidCompany
	}

	filter := &quotedomain.Quote{CompanyID: companyID}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.ClientID != nil {
		clientID, err := snowflake.ParseString(strings.TrimSpace(*req.ClientID))
		if err != nil || clientID == 0 {
			return quotedomain.ListQuoteResponse{}, quotedomain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}

	items, err := s.quoterepo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return quotedomain.ListQuoteResponse{}, err
	}

	quotes := make([]quotedomain.Quote, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		quotes = append(quotes, *item)
	}

	return quotedomain.ListQuoteResponse{Quotes: quotes}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (quotedomain.Quote, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return quotedomain.Quote{}, quotedomain.ErrInvalidCompany
	}

	quoteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || quoteID == 0 {
		return quotedomain.Quote{}, quotedomain.ErrInvalidQuoteID
	}

	item, err := s.quoterepo.FindOne(ctx, &quotedomain.Quote{ID: quoteID, CompanyID: companyID},
		option.WithPreload("Items"),
	)
	if err != nil {
		return quotedomain.Quote{}, err
	}
	if item == nil {
		return quotedomain.Quote{}, quotedomain.ErrNotFound
	}

	return *item, nil
}
