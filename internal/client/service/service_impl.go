package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/client/domain"
	"github.com/lucanori/invoicerr/internal/companyctx"
	"github.com/lucanori/invoicerr/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateClientRequest) (domain.Client, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Client{}, domain.ErrInvalidCompany
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Client{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		IsActive:  true,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, err
	}

	return client, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateClientRequest) (domain.Client, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Client{}, domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Client{}, err
	}

	client, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return domain.Client{}, err
	}
	if client == nil {
		return domain.Client{}, domain.ErrNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		client.Name = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if !strings.Contains(email, "@") {
			return domain.Client{}, domain.ErrInvalidEmail
		}
		client.Email = email
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		client.Phone = phone
	}
	if addr := strings.TrimSpace(req.Address); addr != "" {
		client.Address = addr
	}
	if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != "" {
		client.Currency = currency
	}
	client.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, client); err != nil {
		return domain.Client{}, err
	}

	return *client, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteClientRequest) error {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	client, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return err
	}
	if client == nil {
		return domain.ErrNotFound
	}

	return s.repo.Deactivate(ctx, s.db, companyID, id)
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.ListClientResponse{}, domain.ErrInvalidCompany
	}

	filter := domain.ListClientFilter{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, companyID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(client *domain.Client) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        client.ID.String(),
			CreatedAt: client.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	resp := domain.ListClientResponse{Clients: clients}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetClientRequest) (domain.Client, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return domain.Client{}, domain.ErrInvalidCompany
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Client{}, err
	}

	client, err := s.repo.FindByID(ctx, s.db, companyID, id)
	if err != nil {
		return domain.Client{}, err
	}
	if client == nil {
		return domain.Client{}, domain.ErrNotFound
	}

	return *client, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
