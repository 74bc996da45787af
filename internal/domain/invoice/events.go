package invoice

import (
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
)

// Event types published on the in-process bus
const (
	EventRenderRequested  = "invoice.render_requested"
	EventDocumentAttached = "invoice.document_attached"
	EventNotificationSent = "invoice.notification_sent"
)

const aggregateType = "invoice"

// RenderRequestedEvent is published after the pre-render upsert, once
// per invoice submitted for rendering.
type RenderRequestedEvent struct {
	shared.BaseDomainEvent
	Token string `json:"token"`
}

// NewRenderRequestedEvent creates a RenderRequestedEvent
func NewRenderRequestedEvent(invoiceID string, token RenderToken) *RenderRequestedEvent {
	return &RenderRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventRenderRequested, aggregateType, invoiceID),
		Token:           token.String(),
	}
}

// DocumentAttachedEvent is published after a rendering artifact has
// been stored and recorded on the invoice.
type DocumentAttachedEvent struct {
	shared.BaseDomainEvent
	DocumentID  string `json:"document_id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// NewDocumentAttachedEvent creates a DocumentAttachedEvent
func NewDocumentAttachedEvent(invoiceID string, doc Document) *DocumentAttachedEvent {
	return &DocumentAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventDocumentAttached, aggregateType, invoiceID),
		DocumentID:      doc.ID,
		URL:             doc.URL,
		ContentType:     doc.ContentType,
	}
}

// NotificationSentEvent is published after the invoice email left for
// the notification provider.
type NotificationSentEvent struct {
	shared.BaseDomainEvent
	Recipient string `json:"recipient"`
}

// NewNotificationSentEvent creates a NotificationSentEvent
func NewNotificationSentEvent(invoiceID, recipient string) *NotificationSentEvent {
	return &NotificationSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventNotificationSent, aggregateType, invoiceID),
		Recipient:       recipient,
	}
}
