package invoice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/application/aggregation"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/notification"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/printing"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"go.uber.org/zap"
)

// fakeDirectory serves canned payloads per entity type and counts the
// bulk reads issued against each service.
type fakeDirectory struct {
	data     map[string]map[string]resource.Entity
	fail     map[string]bool
	calls    map[string]int
	subjects map[string]*resourceclient.Subject
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		data:     make(map[string]map[string]resource.Entity),
		fail:     make(map[string]bool),
		calls:    make(map[string]int),
		subjects: make(map[string]*resourceclient.Subject),
	}
}

func (d *fakeDirectory) add(entity, id string, payload resource.Entity) {
	if d.data[entity] == nil {
		d.data[entity] = make(map[string]resource.Entity)
	}
	payload["id"] = id
	d.data[entity][id] = payload
}

func (d *fakeDirectory) Get(service resourceclient.ServiceDescriptor) (resourceclient.Client, error) {
	return &fakeServiceClient{dir: d, entity: service.Entity}, nil
}

func (d *fakeDirectory) aggregator() *aggregation.Aggregator {
	return aggregation.NewAggregator(d, zap.NewNop())
}

type fakeServiceClient struct {
	dir    *fakeDirectory
	entity string
}

func (c *fakeServiceClient) BulkRead(_ context.Context, req *resourceclient.BulkReadRequest) (*resourceclient.BulkReadResponse, error) {
	c.dir.calls[c.entity]++
	c.dir.subjects[c.entity] = req.Subject
	if c.dir.fail[c.entity] {
		return &resourceclient.BulkReadResponse{
			OperationStatus: resource.Status{Code: 500, Message: "upstream unavailable"},
		}, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(req.Filter.Value), &ids); err != nil {
		return nil, err
	}
	resp := &resourceclient.BulkReadResponse{
		OperationStatus: resource.Status{Code: 200},
	}
	for _, id := range ids {
		if payload, ok := c.dir.data[c.entity][id]; ok {
			resp.Items = append(resp.Items, resource.Result{Payload: payload})
		} else {
			resp.Items = append(resp.Items, resource.Result{
				Status: &resource.Status{Code: 404, Message: fmt.Sprintf("%s %s not found", c.entity, id)},
			})
		}
	}
	return resp, nil
}

func (c *fakeServiceClient) Close() error { return nil }

// fakeCounterRepo is an in-memory invoice.CounterRepository
type fakeCounterRepo struct {
	rows    map[string]invoice.NumberCounter
	upserts int
}

func newFakeCounterRepo() *fakeCounterRepo {
	return &fakeCounterRepo{rows: make(map[string]invoice.NumberCounter)}
}

func (r *fakeCounterRepo) LatestForShop(_ context.Context, shopID string) (*invoice.NumberCounter, error) {
	row, ok := r.rows[shopID]
	if !ok {
		return nil, shared.NewNotFoundError("invoice_number_counter", shopID)
	}
	return &row, nil
}

func (r *fakeCounterRepo) Upsert(_ context.Context, counter *invoice.NumberCounter) error {
	r.upserts++
	r.rows[counter.ShopID] = *counter
	return nil
}

// fakeInvoiceRepo is an in-memory invoice.Repository
type fakeInvoiceRepo struct {
	invoices map[string]*invoice.Invoice
	finds    int
	upserts  int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[string]*invoice.Invoice)}
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id string) (*invoice.Invoice, error) {
	r.finds++
	inv, ok := r.invoices[id]
	if !ok {
		return nil, shared.NewNotFoundError("invoice", id)
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) Upsert(_ context.Context, inv *invoice.Invoice) error {
	r.upserts++
	r.invoices[inv.ID] = inv
	return nil
}

// fakeRenderer returns a fixed PDF body
type fakeRenderer struct {
	renders int
	err     error
}

func (r *fakeRenderer) Render(_ context.Context, in *printing.RenderInput) (*printing.RenderOutput, error) {
	r.renders++
	if r.err != nil {
		return nil, r.err
	}
	return &printing.RenderOutput{PDFData: []byte("%PDF-1.4 " + in.Title)}, nil
}

func (r *fakeRenderer) Close() error { return nil }

// fakeMailer records sent emails
type fakeMailer struct {
	sent []notificationEmail
	err  error
}

type notificationEmail struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	PDF     []byte
}

func (m *fakeMailer) Send(_ context.Context, email *notification.Email) error {
	if m.err != nil {
		return m.err
	}
	sent := notificationEmail{
		To:      email.To,
		CC:      email.CC,
		Subject: email.Subject,
		Body:    email.Body,
	}
	if len(email.Attachments) > 0 {
		sent.PDF = email.Attachments[0].Buffer
	}
	m.sent = append(m.sent, sent)
	return nil
}

// shopWithSettings builds a shop payload carrying {id, value} settings
func shopWithSettings(settings map[string]string) resource.Entity {
	list := make([]any, 0, len(settings))
	for k, v := range settings {
		list = append(list, resource.Entity{"id": k, "value": v})
	}
	return resource.Entity{"settings": list}
}
