// Package models holds the GORM models and their domain conversions.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the GORM model for the invoices table. Positions
// and documents are stored as JSON because their shape is owned by
// the domain layer and never queried relationally.
type InvoiceModel struct {
	ID             string          `gorm:"type:varchar(64);primary_key"`
	ShopID         string          `gorm:"column:shop_id;type:varchar(64);not null;index"`
	CustomerID     string          `gorm:"column:customer_id;type:varchar(64);not null;index"`
	UserID         string          `gorm:"column:user_id;type:varchar(64)"`
	InvoiceNumber  string          `gorm:"column:invoice_number;type:varchar(128);index"`
	CurrencyID     string          `gorm:"column:currency_id;type:varchar(64)"`
	RecipientEmail string          `gorm:"column:recipient_email;type:varchar(255)"`
	NetAmount      decimal.Decimal `gorm:"column:net_amount;type:numeric(20,8);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(20,8);not null;default:0"`
	Positions      string          `gorm:"type:jsonb;default:'[]'"`
	Documents      string          `gorm:"type:jsonb;default:'[]'"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to the domain aggregate
func (m *InvoiceModel) ToDomain() (*invoice.Invoice, error) {
	inv := &invoice.Invoice{
		ID:             m.ID,
		ShopID:         m.ShopID,
		CustomerID:     m.CustomerID,
		UserID:         m.UserID,
		InvoiceNumber:  m.InvoiceNumber,
		CurrencyID:     m.CurrencyID,
		RecipientEmail: m.RecipientEmail,
		NetAmount:      m.NetAmount,
		TotalAmount:    m.TotalAmount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Positions != "" {
		if err := json.Unmarshal([]byte(m.Positions), &inv.Positions); err != nil {
			return nil, fmt.Errorf("failed to decode invoice positions: %w", err)
		}
	}
	if m.Documents != "" {
		if err := json.Unmarshal([]byte(m.Documents), &inv.Documents); err != nil {
			return nil, fmt.Errorf("failed to decode invoice documents: %w", err)
		}
	}
	return inv, nil
}

// InvoiceModelFromDomain converts the domain aggregate to the model
func InvoiceModelFromDomain(inv *invoice.Invoice) (*InvoiceModel, error) {
	positions, err := json.Marshal(inv.Positions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice positions: %w", err)
	}
	documents, err := json.Marshal(inv.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice documents: %w", err)
	}
	return &InvoiceModel{
		ID:             inv.ID,
		ShopID:         inv.ShopID,
		CustomerID:     inv.CustomerID,
		UserID:         inv.UserID,
		InvoiceNumber:  inv.InvoiceNumber,
		CurrencyID:     inv.CurrencyID,
		RecipientEmail: inv.RecipientEmail,
		NetAmount:      inv.NetAmount,
		TotalAmount:    inv.TotalAmount,
		Positions:      string(positions),
		Documents:      string(documents),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}, nil
}

// NumberCounterModel is the GORM model for the durable per-shop
// invoice number counters.
type NumberCounterModel struct {
	ShopID        string    `gorm:"column:shop_id;type:varchar(64);primary_key"`
	Counter       int64     `gorm:"not null"`
	InvoiceNumber string    `gorm:"column:invoice_number;type:varchar(128)"`
	UpdatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for NumberCounterModel
func (NumberCounterModel) TableName() string {
	return "invoice_number_counters"
}

// ToDomain converts the model to the domain entity
func (m *NumberCounterModel) ToDomain() *invoice.NumberCounter {
	return &invoice.NumberCounter{
		ShopID:        m.ShopID,
		Counter:       m.Counter,
		InvoiceNumber: m.InvoiceNumber,
		UpdatedAt:     m.UpdatedAt,
	}
}

// NumberCounterModelFromDomain converts the domain entity to the model
func NumberCounterModelFromDomain(c *invoice.NumberCounter) *NumberCounterModel {
	return &NumberCounterModel{
		ShopID:        c.ShopID,
		Counter:       c.Counter,
		InvoiceNumber: c.InvoiceNumber,
		UpdatedAt:     c.UpdatedAt,
	}
}
