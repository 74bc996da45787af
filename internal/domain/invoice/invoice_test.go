package invoice_test

import (
	"testing"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachDocumentAppends(t *testing.T) {
	inv := &invoice.Invoice{ID: "inv_1"}

	inv.AttachDocument(invoice.Document{ID: invoice.DocumentHTML, ContentType: "text/html"})
	inv.AttachDocument(invoice.Document{ID: invoice.DocumentPDF, ContentType: "application/pdf"})
	// a second artifact of the same kind is appended, never replaced
	inv.AttachDocument(invoice.Document{ID: invoice.DocumentPDF, ContentType: "application/pdf", URL: "second"})

	require.Len(t, inv.Documents, 3)
	assert.False(t, inv.Documents[0].CreatedAt.IsZero())
}

func TestLatestDocumentByContentType(t *testing.T) {
	inv := &invoice.Invoice{ID: "inv_1"}
	inv.AttachDocument(invoice.Document{ID: invoice.DocumentPDF, ContentType: "application/pdf", URL: "first"})
	inv.AttachDocument(invoice.Document{ID: invoice.DocumentHTML, ContentType: "text/html"})
	inv.AttachDocument(invoice.Document{ID: invoice.DocumentPDF, ContentType: "application/pdf", URL: "second"})

	latest := inv.LatestDocument("application/pdf")
	require.NotNil(t, latest)
	assert.Equal(t, "second", latest.URL)

	assert.Nil(t, inv.LatestDocument("image/png"))
}

func TestInvoicePayloadShape(t *testing.T) {
	inv := &invoice.Invoice{
		ID:         "inv_1",
		ShopID:     "shop_1",
		CustomerID: "customer_1",
		Positions: []invoice.Position{
			{ID: "pos_1", ProductID: "physicalProduct_1", VariantID: "2", TaxIDs: []string{"tax_1"}},
		},
	}

	payload, err := inv.Payload()
	require.NoError(t, err)
	assert.Equal(t, "shop_1", payload["shop_id"])

	positions := payload["positions"].([]any)
	require.Len(t, positions, 1)
	pos := positions[0].(map[string]any)
	assert.Equal(t, "physicalProduct_1", pos["product_id"])
	assert.Equal(t, []any{"tax_1"}, pos["tax_ids"])
}
