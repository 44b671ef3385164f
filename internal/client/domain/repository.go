package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lucanori/invoicerr/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	Update(ctx context.Context, db *gorm.DB, client *Client) error
	Deactivate(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, companyID snowflake.ID, filter ListClientFilter, page pagination.Pagination) ([]*Client, error)
}
