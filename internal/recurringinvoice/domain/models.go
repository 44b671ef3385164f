package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecurringInvoice is a definition from which the scheduler materializes
// invoices. Count caps the number of invoices ever generated; Until is an
// inclusive end date. The two limits are independent.
type RecurringInvoice struct {
	ID              snowflake.ID           `gorm:"primaryKey" json:"id"`
	CompanyID       snowflake.ID           `gorm:"not null;index" json:"company_id"`
	ClientID        snowflake.ID           `gorm:"not null;index" json:"client_id"`
	Frequency       Frequency              `gorm:"type:text;not null" json:"frequency"`
	NextInvoiceDate time.Time              `gorm:"not null;index" json:"next_invoice_date"`
	LastInvoiceDate *time.Time             `json:"last_invoice_date,omitempty"`
	Until           *time.Time             `json:"until,omitempty"`
	Count           *int                   `json:"count,omitempty"`
	AutoSend        bool                   `gorm:"not null;default:false" json:"auto_send"`
	Currency        string                 `gorm:"type:text;not null" json:"currency"`
	PaymentMethod   string                 `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentDetails  string                 `gorm:"type:text" json:"payment_details,omitempty"`
	Notes           string                 `gorm:"type:text" json:"notes,omitempty"`
	IsActive        bool                   `gorm:"not null;default:true" json:"is_active"`
	Items           []RecurringInvoiceItem `gorm:"foreignKey:RecurringInvoiceID" json:"items"`
	CreatedAt       time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (RecurringInvoice) TableName() string { return "recurring_invoices" }

type RecurringInvoiceItem struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	RecurringInvoiceID snowflake.ID `gorm:"not null;index" json:"recurring_invoice_id"`
	Description        string       `gorm:"type:text" json:"description"`
	Quantity           float64      `gorm:"not null" json:"quantity"`
	UnitPrice          float64      `gorm:"not null" json:"unit_price"`
	VATRate            float64      `gorm:"not null;default:0" json:"vat_rate"`
	Position           int          `gorm:"not null;default:0" json:"position"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (RecurringInvoiceItem) TableName() string { return "recurring_invoice_items" }
