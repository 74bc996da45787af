package event_test

import (
	"testing"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRenderResponseFlattensContentKinds(t *testing.T) {
	raw := []byte(`{
		"id": "invoice/pdf/inv_1",
		"responses": [
			{"value": "eyJpbnZvaWNlIjoiPGh0bWw+aW52b2ljZTwvaHRtbD4iLCJlbWFpbCI6IjxwPm1haWw8L3A+In0="}
		]
	}`)

	resp, err := event.DecodeRenderResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "invoice/pdf/inv_1", resp.ID)
	require.Len(t, resp.Bodies, 2)

	invoiceBody := resp.Body(event.BodyKindInvoice)
	require.NotNil(t, invoiceBody)
	assert.Equal(t, "<html>invoice</html>", invoiceBody.HTML)

	emailBody := resp.Body(event.BodyKindEmail)
	require.NotNil(t, emailBody)
	assert.Equal(t, "<p>mail</p>", emailBody.HTML)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := &event.RenderResponse{
		ID: "invoice/pdf/inv_2",
		Bodies: []event.RenderedBody{
			{Kind: event.BodyKindInvoice, HTML: "<html>x</html>"},
		},
	}

	raw, err := event.EncodeRenderResponse(original)
	require.NoError(t, err)

	decoded, err := event.DecodeRenderResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, original.ID, decoded.ID)
	require.Len(t, decoded.Bodies, 1)
	assert.Equal(t, original.Bodies[0], decoded.Bodies[0])
}

func TestDecodeRenderResponseMalformed(t *testing.T) {
	_, err := event.DecodeRenderResponse([]byte(`{"id": 1}`))
	assert.Error(t, err)
}

func TestResponseBodyMissingKind(t *testing.T) {
	resp := &event.RenderResponse{ID: "invoice/pdf/x"}
	assert.Nil(t, resp.Body(event.BodyKindEmail))
}
