// Package invoice holds the invoice aggregate, its documents, render
// correlation tokens, the per-shop number counter and the repository
// contracts backing them.
package invoice

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Well-known document ids recorded on an invoice
const (
	DocumentHTML = "invoice_html"
	DocumentPDF  = "invoice_pdf"
)

// Document is one rendering artifact recorded on an invoice
type Document struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Filename    string    `json:"filename"`
	ByteLength  int64     `json:"byte_length"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Position is one invoice line item. Product, variant and taxes are
// foreign identifiers owned by remote resource services.
type Position struct {
	ID                   string          `json:"id"`
	ProductID            string          `json:"product_id,omitempty"`
	VariantID            string          `json:"variant_id,omitempty"`
	FulfillmentProductID string          `json:"fulfillment_product_id,omitempty"`
	TaxIDs               []string        `json:"tax_ids,omitempty"`
	Quantity             decimal.Decimal `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Amount               decimal.Decimal `json:"amount"`
}

// Invoice is the aggregate root. It holds foreign identifiers only;
// the dereferenced object graph is materialized per render request and
// never persisted.
type Invoice struct {
	ID             string     `json:"id"`
	ShopID         string     `json:"shop_id"`
	CustomerID     string     `json:"customer_id"`
	UserID         string     `json:"user_id,omitempty"`
	InvoiceNumber  string     `json:"invoice_number,omitempty"`
	CurrencyID     string     `json:"currency_id,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Positions      []Position `json:"positions,omitempty"`
	Documents      []Document `json:"documents,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AttachDocument appends a rendering artifact. Attaching the same
// document id twice appends a second entry; duplicate suppression is
// the submitter's concern, not the aggregate's.
func (i *Invoice) AttachDocument(doc Document) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	i.Documents = append(i.Documents, doc)
	i.UpdatedAt = time.Now()
}

// LatestDocument returns the most recently attached document with the
// given content type, or nil.
func (i *Invoice) LatestDocument(contentType string) *Document {
	for idx := len(i.Documents) - 1; idx >= 0; idx-- {
		if i.Documents[idx].ContentType == contentType {
			return &i.Documents[idx]
		}
	}
	return nil
}

// Payload returns the invoice as a JSON-shaped entity, the form the
// aggregation and graph resolution pipeline operates on.
func (i *Invoice) Payload() (map[string]any, error) {
	raw, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
