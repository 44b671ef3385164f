package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null" json:"email"`
	Address   string       `json:"address,omitempty"`
	Currency  string       `gorm:"not null;default:EUR" json:"currency"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Company) TableName() string { return "companies" }
