package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Client struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID      `gorm:"not null;index" json:"company_id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"not null" json:"email"`
	Phone     string            `json:"phone,omitempty"`
	Address   string            `json:"address,omitempty"`
	Currency  string            `gorm:"column:currency" json:"currency,omitempty"`
	IsActive  bool              `gorm:"not null;default:true" json:"is_active"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }
