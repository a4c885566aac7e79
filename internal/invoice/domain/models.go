// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	usagedomain "github.com/smallbiznis/factorylicense/internal/usage/domain"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

type ItemType string

const (
	ItemTypeBase           ItemType = "base"
	ItemTypeStorageOverage ItemType = "storage_overage"
	ItemTypeAIOverage      ItemType = "ai_overage"
)

// PaymentTerm is the gap between issue and due date.
const PaymentTerm = 30 * 24 * time.Hour

// Invoice is an immutable billing snapshot for one license and period.
type Invoice struct {
	ID             snowflake.ID                             `gorm:"primaryKey" json:"id"`
	InvoiceNumber  string                                   `gorm:"type:text;not null;uniqueIndex:ux_invoice_number" json:"invoiceNumber"`
	LicenseID      string                                   `gorm:"type:text;not null;index" json:"licenseId"`
	FactoryID      string                                   `gorm:"type:text;not null;index" json:"factoryId"`
	OrganizationID string                                   `gorm:"type:text;not null;index" json:"organizationId"`
	Period         usagedomain.Period                       `gorm:"type:text;not null" json:"period"`
	PeriodStart    time.Time                                `gorm:"not null" json:"periodStart"`
	IssueDate      time.Time                                `gorm:"not null" json:"issueDate"`
	DueDate        time.Time                                `gorm:"not null" json:"dueDate"`
	Status         InvoiceStatus                            `gorm:"type:text;not null;default:'pending'" json:"status"`
	Currency       string                                   `gorm:"type:text;not null" json:"currency"`
	Subtotal       decimal.Decimal                          `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	Tax            decimal.Decimal                          `gorm:"type:numeric(14,2);not null" json:"tax"`
	Total          decimal.Decimal                          `gorm:"type:numeric(14,2);not null" json:"total"`
	UsageSnapshot  datatypes.JSONType[usagedomain.Counters] `gorm:"type:json;not null" json:"usageSnapshot"`
	Items          []InvoiceItem                            `gorm:"foreignKey:InvoiceID" json:"items"`
	CreatedAt      time.Time                                `gorm:"not null" json:"createdAt"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoiceId"`
	Position    int             `gorm:"not null" json:"position"`
	Type        ItemType        `gorm:"type:text;not null" json:"type"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"unitPrice"`
	Total       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
