package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/application/aggregation"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/event"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/notification"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/printing"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// The subject placeholder substituted with the allocated number
const subjectNumberPlaceholder = "[InvoiceNumber]"

// RenderSaga drives the asynchronous rendering round-trip. SubmitRender
// persists the pre-render invoice and emits one render request per
// invoice; HandleRenderResponse correlates an arriving response back by
// its token and performs artifact storage, document bookkeeping and
// email dispatch. There is no persisted saga state: progress is
// whatever the invoice's document list says it is. The only submit-time
// state kept is an in-memory map of pending tokens to the submitting
// subject, so resource reads on the response path carry the caller
// identity; after a restart those reads fall back to anonymous.
type RenderSaga struct {
	invoices   invoice.Repository
	graph      *GraphBuilder
	allocator  *NumberAllocator
	aggregator *aggregation.Aggregator
	transport  event.RenderTransport
	bus        shared.EventPublisher
	store      storage.ObjectStorage
	renderer   printing.PDFRenderer
	mailer     notification.EmailSender
	defaults   Defaults
	logger     *zap.Logger

	mu      sync.Mutex
	pending map[string]*resourceclient.Subject
}

// NewRenderSaga creates a RenderSaga
func NewRenderSaga(
	invoices invoice.Repository,
	graph *GraphBuilder,
	allocator *NumberAllocator,
	aggregator *aggregation.Aggregator,
	transport event.RenderTransport,
	bus shared.EventPublisher,
	store storage.ObjectStorage,
	renderer printing.PDFRenderer,
	mailer notification.EmailSender,
	defaults Defaults,
	logger *zap.Logger,
) *RenderSaga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderSaga{
		invoices:   invoices,
		graph:      graph,
		allocator:  allocator,
		aggregator: aggregator,
		transport:  transport,
		bus:        bus,
		store:      store,
		renderer:   renderer,
		mailer:     mailer,
		defaults:   defaults,
		logger:     logger,
		pending:    make(map[string]*resourceclient.Subject),
	}
}

// SetTransport wires the render transport after construction. The
// transport dispatches responses back to the saga, so the two are
// built in sequence and joined here.
func (s *RenderSaga) SetTransport(t event.RenderTransport) {
	s.transport = t
}

// SubmitRender builds the dereferenced graph, persists each invoice
// and emits one render request per invoice. The call succeeds once
// every upsert succeeded; rendering itself completes asynchronously
// and emission failures after the upsert are logged, not returned.
func (s *RenderSaga) SubmitRender(ctx context.Context, invoices []*invoice.Invoice, subject *resourceclient.Subject) error {
	graphs, err := s.graph.BuildGraph(ctx, invoices, subject)
	if err != nil {
		return fmt.Errorf("building invoice graph: %w", err)
	}

	for i, inv := range invoices {
		if inv.InvoiceNumber == "" && s.allocator != nil {
			number, err := s.allocator.Allocate(ctx, inv.ShopID, subject)
			if err != nil {
				return fmt.Errorf("allocating number for invoice %s: %w", inv.ID, err)
			}
			inv.InvoiceNumber = number
		}
		if recipient := recipientFromGraph(graphs[i]); recipient != "" {
			inv.RecipientEmail = recipient
		}

		if err := s.invoices.Upsert(ctx, inv); err != nil {
			return fmt.Errorf("persisting invoice %s: %w", inv.ID, err)
		}

		data, err := json.Marshal(graphs[i])
		if err != nil {
			s.logger.Error("failed to serialize invoice graph",
				zap.String("invoice_id", inv.ID), zap.Error(err))
			continue
		}

		token := invoice.NewRenderToken(inv.ID)
		s.rememberSubject(token.String(), subject)
		req := &event.RenderRequest{
			ID: token.String(),
			Payloads: []event.RenderPayload{{
				ContentType: "application/json",
				Data:        data,
				Options:     s.defaults.Puppeteer,
			}},
		}
		if err := s.transport.Emit(ctx, req); err != nil {
			s.logger.Error("failed to emit render request",
				zap.String("invoice_id", inv.ID), zap.Error(err))
			continue
		}

		s.publish(ctx, invoice.NewRenderRequestedEvent(inv.ID, token))
	}
	return nil
}

// HandleRenderResponse routes a correlated render response back to its
// invoice. Responses for other entity types sharing the render topic
// are ignored without any read or write. Storage, rendering and
// dispatch failures are logged and swallowed: the saga is at-least-once
// and a partial failure leaves the invoice with fewer documents,
// discoverable by a subsequent read.
func (s *RenderSaga) HandleRenderResponse(ctx context.Context, resp *event.RenderResponse) error {
	token, err := invoice.ParseRenderToken(resp.ID)
	if err != nil {
		s.logger.Warn("dropping render response with malformed token",
			zap.String("id", resp.ID), zap.Error(err))
		return nil
	}
	if token.EntityType != invoice.EntityType {
		return nil
	}

	inv, err := s.invoices.FindByID(ctx, token.EntityID)
	if err != nil {
		return fmt.Errorf("loading invoice %s for render response: %w", token.EntityID, err)
	}

	settings := s.renderSettingsFor(ctx, inv.ShopID, s.takeSubject(resp.ID))

	if body := resp.Body(event.BodyKindInvoice); body != nil && body.HTML != "" {
		if !settings.DisableHTML {
			s.storeDocument(ctx, inv, settings.HTMLBucket, invoice.DocumentHTML,
				"invoice.html", "text/html", []byte(body.HTML))
		}
		s.renderAndStorePDF(ctx, inv, settings, body.HTML)
	}

	if body := resp.Body(event.BodyKindEmail); body != nil && body.HTML != "" {
		s.dispatchEmail(ctx, inv, settings, body.HTML)
	}
	return nil
}

// rememberSubject keeps the submitting subject for a pending token so
// the response path reads resources as the original caller
func (s *RenderSaga) rememberSubject(token string, subject *resourceclient.Subject) {
	if subject == nil {
		return
	}
	s.mu.Lock()
	s.pending[token] = subject
	s.mu.Unlock()
}

// takeSubject returns and forgets the subject stored for a token, or
// nil when the submit happened in another process lifetime
func (s *RenderSaga) takeSubject(token string) *resourceclient.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	return subject
}

// renderSettingsFor resolves a shop's render settings, falling back to
// the service defaults when the shop cannot be read.
func (s *RenderSaga) renderSettingsFor(ctx context.Context, shopID string, subject *resourceclient.Subject) renderSettings {
	shops, err := s.aggregator.GetByIDs(ctx, []string{shopID}, ShopService, subject)
	if err != nil {
		s.logger.Warn("failed to resolve shop settings, using defaults",
			zap.String("shop_id", shopID), zap.Error(err))
		return renderSettingsFor(nil, s.defaults)
	}
	return renderSettingsFor(shops.Get(shopID), s.defaults)
}

// storeDocument streams an artifact to object storage and records it
// on the invoice. Failures are logged; the invoice keeps whatever
// documents were recorded before.
func (s *RenderSaga) storeDocument(ctx context.Context, inv *invoice.Invoice, bucket, docID, filename, contentType string, data []byte) {
	info, err := s.store.Put(ctx, bucket, objectKey(inv.ID, filename),
		bytes.NewReader(data), storage.ObjectMeta{ContentType: contentType})
	if err != nil {
		s.logger.Error("failed to store rendering artifact",
			zap.String("invoice_id", inv.ID),
			zap.String("document_id", docID),
			zap.Error(err))
		return
	}

	doc := invoice.Document{
		ID:          docID,
		URL:         info.URL,
		Filename:    filename,
		ByteLength:  info.Size,
		ContentType: contentType,
	}
	inv.AttachDocument(doc)
	if err := s.invoices.Upsert(ctx, inv); err != nil {
		s.logger.Error("failed to persist document entry",
			zap.String("invoice_id", inv.ID),
			zap.String("document_id", docID),
			zap.Error(err))
		return
	}
	s.publish(ctx, invoice.NewDocumentAttachedEvent(inv.ID, doc))
}

func (s *RenderSaga) renderAndStorePDF(ctx context.Context, inv *invoice.Invoice, settings renderSettings, html string) {
	out, err := s.renderer.Render(ctx, &printing.RenderInput{
		HTML:    html,
		Title:   inv.InvoiceNumber,
		Options: settings.Puppeteer,
	})
	if err != nil {
		s.logger.Error("pdf rendering failed",
			zap.String("invoice_id", inv.ID), zap.Error(err))
		return
	}
	s.storeDocument(ctx, inv, settings.PDFBucket, invoice.DocumentPDF,
		"invoice.pdf", "application/pdf", out.PDFData)
}

// dispatchEmail sends the email body with the most recent PDF attached
func (s *RenderSaga) dispatchEmail(ctx context.Context, inv *invoice.Invoice, settings renderSettings, body string) {
	if inv.RecipientEmail == "" {
		s.logger.Warn("invoice has no recipient email, skipping dispatch",
			zap.String("invoice_id", inv.ID))
		return
	}
	doc := inv.LatestDocument("application/pdf")
	if doc == nil {
		s.logger.Warn("no pdf document available for email dispatch",
			zap.String("invoice_id", inv.ID))
		return
	}

	rc, err := s.store.Get(ctx, settings.PDFBucket, objectKey(inv.ID, doc.Filename))
	if err != nil {
		s.logger.Error("failed to fetch pdf for email dispatch",
			zap.String("invoice_id", inv.ID), zap.Error(err))
		return
	}
	pdf, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		s.logger.Error("failed to read pdf for email dispatch",
			zap.String("invoice_id", inv.ID), zap.Error(err))
		return
	}

	email := &notification.Email{
		Provider: settings.EmailProvider,
		To:       []string{inv.RecipientEmail},
		CC:       settings.EmailCC,
		Subject:  strings.ReplaceAll(settings.EmailSubject, subjectNumberPlaceholder, inv.InvoiceNumber),
		Body:     body,
		Attachments: []notification.Attachment{{
			Buffer:      pdf,
			Filename:    doc.Filename,
			ContentType: "application/pdf",
		}},
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		s.logger.Error("failed to dispatch invoice email",
			zap.String("invoice_id", inv.ID), zap.Error(err))
		return
	}
	s.publish(ctx, invoice.NewNotificationSentEvent(inv.ID, inv.RecipientEmail))
}

func (s *RenderSaga) publish(ctx context.Context, evt shared.DomainEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish domain event",
			zap.String("event_type", evt.EventType()), zap.Error(err))
	}
}

// recipientFromGraph reads the recipient address off the resolved
// customer, falling back to the customer's resolved user.
func recipientFromGraph(graph resource.Entity) string {
	customer, _ := graph["customer"].(resource.Entity)
	if customer == nil {
		return ""
	}
	if email, _ := customer["email"].(string); email != "" {
		return email
	}
	if user, _ := customer["user"].(resource.Entity); user != nil {
		if email, _ := user["email"].(string); email != "" {
			return email
		}
	}
	return ""
}

func objectKey(invoiceID, filename string) string {
	return fmt.Sprintf("%s/%s", invoiceID, filename)
}

// Ensure RenderSaga satisfies the transport's handler contract
var _ event.RenderResponseHandler = (*RenderSaga)(nil)
