// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
)

// Invoice represents an issued invoice with its computed totals.
type Invoice struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyID          snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_invoice_company_number" json:"company_id"`
	ClientID           snowflake.ID      `gorm:"not null;index" json:"client_id"`
	QuoteID            *snowflake.ID     `gorm:"index" json:"quote_id,omitempty"`
	RecurringInvoiceID *snowflake.ID     `gorm:"index" json:"recurring_invoice_id,omitempty"`
	Number             string            `gorm:"type:text;not null;uniqueIndex:ux_invoice_company_number" json:"number"`
	Status             InvoiceStatus     `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Currency           string            `gorm:"type:text;not null" json:"currency"`
	Notes              string            `gorm:"type:text" json:"notes,omitempty"`
	PaymentMethod      string            `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentDetails     string            `gorm:"type:text" json:"payment_details,omitempty"`
	TotalHT            float64           `gorm:"not null;default:0" json:"total_ht"`
	TotalVAT           float64           `gorm:"not null;default:0" json:"total_vat"`
	TotalTTC           float64           `gorm:"not null;default:0" json:"total_ttc"`
	IsActive           bool              `gorm:"not null;default:true" json:"is_active"`
	DueAt              time.Time         `gorm:"not null" json:"due_at"`
	PaidAt             *time.Time        `json:"paid_at,omitempty"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	Items              []InvoiceItem     `gorm:"foreignKey:InvoiceID" json:"items"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice.
type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Description string       `gorm:"type:text" json:"description"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	VATRate     float64      `gorm:"not null;default:0" json:"vat_rate"`
	Position    int          `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
