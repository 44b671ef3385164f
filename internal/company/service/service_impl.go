package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/company/domain"
	"github.com/lucanori/invoicerr/pkg/db/option"
	"github.com/lucanori/invoicerr/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Store repository.Repository[domain.Company]
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	store repository.Repository[domain.Company]
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		store: p.Store,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCompanyRequest) (domain.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Company{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Company{}, domain.ErrInvalidEmail
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	now := time.Now().UTC()
	company := domain.Company{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Address:   strings.TrimSpace(req.Address),
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, &company); err != nil {
		return domain.Company{}, err
	}

	return company, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCompanyRequest) (domain.Company, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Company{}, err
	}

	existing, err := s.store.FindOne(ctx, &domain.Company{ID: id})
	if err != nil {
		return domain.Company{}, err
	}
	if existing == nil {
		return domain.Company{}, domain.ErrNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		existing.Name = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if !strings.Contains(email, "@") {
			return domain.Company{}, domain.ErrInvalidEmail
		}
		existing.Email = email
	}
	if addr := strings.TrimSpace(req.Address); addr != "" {
		existing.Address = addr
	}
	if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != "" {
		existing.Currency = currency
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, existing.ID.String(), existing); err != nil {
		return domain.Company{}, err
	}

	return *existing, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCompanyRequest) (domain.Company, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Company{}, err
	}

	company, err := s.store.FindOne(ctx, &domain.Company{ID: id})
	if err != nil {
		return domain.Company{}, err
	}
	if company == nil {
		return domain.Company{}, domain.ErrNotFound
	}

	return *company, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Company, error) {
	items, err := s.store.Find(ctx, &domain.Company{},
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return nil, err
	}

	companies := make([]domain.Company, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		companies = append(companies, *item)
	}

	return companies, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
