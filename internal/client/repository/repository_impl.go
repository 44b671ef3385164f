package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/internal/client/domain"
	"github.com/lucanori/invoicerr/pkg/db/option"
	"github.com/lucanori/invoicerr/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO clients (id, company_id, name, email, phone, address, currency, is_active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.CompanyID,
		client.Name,
		client.Email,
		client.Phone,
		client.Address,
		client.Currency,
		client.IsActive,
		client.Metadata,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`UPDATE clients
		 SET name = ?, email = ?, phone = ?, address = ?, currency = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		client.Name,
		client.Email,
		client.Phone,
		client.Address,
		client.Currency,
		client.UpdatedAt,
		client.CompanyID,
		client.ID,
	).Error
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE clients SET is_active = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
		false,
		time.Now().UTC(),
		companyID,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*domain.Client, error) {
	var client domain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT id, company_id, name, email, phone, address, currency, is_active, metadata, created_at, updated_at
		 FROM clients WHERE company_id = ? AND id = ?`,
		companyID,
		id,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter domain.ListClientFilter, page pagination.Pagination) ([]*domain.Client, error) {
	var clients []*domain.Client
	stmt := db.WithContext(ctx).
		Model(&domain.Client{}).
		Where("company_id = ? AND is_active = ?", companyID, true)
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}
