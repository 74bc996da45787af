package invoice_test

import (
	"testing"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		counter int64
		want    string
	}{
		{"zero padded sprintf-js verb", "invoice-%010i", 42, "invoice-0000000042"},
		{"plain verb", "INV-%d", 7, "INV-7"},
		{"go style verb", "R%05d", 123, "R00123"},
		{"literal percent", "100%%-%d", 3, "100%-3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := invoice.FormatNumber(tc.pattern, tc.counter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatNumberMalformedPattern(t *testing.T) {
	for _, pattern := range []string{
		"no-verb-at-all",
		"two-%d-%d",
		"wrong-%s",
		"mixed-%d-%s",
	} {
		_, err := invoice.FormatNumber(pattern, 1)
		assert.ErrorIs(t, err, shared.ErrInvalidPattern, pattern)
	}
}

func TestRenderTokenRoundTrip(t *testing.T) {
	token := invoice.NewRenderToken("inv_1")
	assert.Equal(t, "invoice/pdf/inv_1", token.String())

	parsed, err := invoice.ParseRenderToken("invoice/pdf/inv_1")
	require.NoError(t, err)
	assert.Equal(t, token, parsed)
}

func TestParseRenderTokenForeignEntity(t *testing.T) {
	parsed, err := invoice.ParseRenderToken("order/pdf/XYZ")
	require.NoError(t, err)
	assert.Equal(t, "order", parsed.EntityType)
	assert.NotEqual(t, invoice.EntityType, parsed.EntityType)
}

func TestParseRenderTokenMalformed(t *testing.T) {
	for _, s := range []string{"", "invoice", "invoice/pdf", "invoice//x", "/pdf/x"} {
		_, err := invoice.ParseRenderToken(s)
		assert.Error(t, err, s)
	}
}

func TestParseRenderTokenIDWithSlashes(t *testing.T) {
	parsed, err := invoice.ParseRenderToken("invoice/pdf/tenant/abc")
	require.NoError(t, err)
	assert.Equal(t, "tenant/abc", parsed.EntityID)
}
