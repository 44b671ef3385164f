package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusSigned   QuoteStatus = "SIGNED"
	QuoteStatusExpired  QuoteStatus = "EXPIRED"
	QuoteStatusDeclined QuoteStatus = "DECLINED"
)

type Quote struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID      snowflake.ID `gorm:"not null;index" json:"company_id"`
	ClientID       snowflake.ID `gorm:"not null;index" json:"client_id"`
	Title          string       `gorm:"type:text" json:"title,omitempty"`
	Status         QuoteStatus  `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Currency       string       `gorm:"type:text;not null" json:"currency"`
	Notes          string       `gorm:"type:text" json:"notes,omitempty"`
	PaymentMethod  string       `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentDetails string       `gorm:"type:text" json:"payment_details,omitempty"`
	TotalHT        float64      `gorm:"not null;default:0" json:"total_ht"`
	TotalVAT       float64      `gorm:"not null;default:0" json:"total_vat"`
	TotalTTC       float64      `gorm:"not null;default:0" json:"total_ttc"`
	ValidUntil     *time.Time   `json:"valid_until,omitempty"`
	Items          []QuoteItem  `gorm:"foreignKey:QuoteID" json:"items"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Quote) TableName() string { return "quotes" }

type QuoteItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	QuoteID     snowflake.ID `gorm:"not null;index" json:"quote_id"`
	Description string       `gorm:"type:text" json:"description"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	VATRate     float64      `gorm:"not null;default:0" json:"vat_rate"`
	Position    int          `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (QuoteItem) TableName() string { return "quote_items" }
