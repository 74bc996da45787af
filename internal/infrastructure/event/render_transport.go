package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/printing"
)

// Content kinds carried in one render response batch
const (
	BodyKindInvoice = "invoice"
	BodyKindEmail   = "email"
)

// RenderPayload is one renderable payload in a render request
type RenderPayload struct {
	ContentType string                    `json:"content_type"`
	Data        []byte                    `json:"data"`
	Options     printing.PuppeteerOptions `json:"options,omitempty"`
}

// RenderRequest is the event emitted towards the external renderer.
// ID is the correlation token; it is the only request state the
// service keeps.
type RenderRequest struct {
	ID       string          `json:"id"`
	Payloads []RenderPayload `json:"payloads"`
}

// RenderedBody is one named HTML body from a render response. The
// renderer may bundle several kinds (invoice body, email body) in one
// batch; modeling them as a discriminated list keeps consumers from
// sniffing JSON shapes.
type RenderedBody struct {
	Kind string
	HTML string
}

// RenderResponse is the correlated response arriving from the
// external renderer, decoded into discriminated bodies.
type RenderResponse struct {
	ID     string
	Bodies []RenderedBody
}

// Body returns the first body of the given kind, or nil
func (r *RenderResponse) Body(kind string) *RenderedBody {
	for i := range r.Bodies {
		if r.Bodies[i].Kind == kind {
			return &r.Bodies[i]
		}
	}
	return nil
}

// RenderResponseHandler consumes correlated render responses
type RenderResponseHandler interface {
	HandleRenderResponse(ctx context.Context, resp *RenderResponse) error
}

// RenderTransport emits render requests towards the external renderer
type RenderTransport interface {
	Emit(ctx context.Context, req *RenderRequest) error
	Close() error
}

// wire shapes of the shared render topics

type wireResponseValue struct {
	Value []byte `json:"value"`
}

type wireRenderResponse struct {
	ID        string              `json:"id"`
	Responses []wireResponseValue `json:"responses"`
}

// DecodeRenderResponse decodes the wire form of a render response.
// Each response value is a JSON object whose keys name a content kind
// mapping to an HTML body; kinds are flattened into the discriminated
// body list, sorted for deterministic processing order.
func DecodeRenderResponse(raw []byte) (*RenderResponse, error) {
	var wire wireRenderResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode render response: %w", err)
	}

	out := &RenderResponse{ID: wire.ID}
	for _, value := range wire.Responses {
		var bodies map[string]string
		if err := json.Unmarshal(value.Value, &bodies); err != nil {
			return nil, fmt.Errorf("failed to decode render response value: %w", err)
		}
		kinds := make([]string, 0, len(bodies))
		for kind := range bodies {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			out.Bodies = append(out.Bodies, RenderedBody{Kind: kind, HTML: bodies[kind]})
		}
	}
	return out, nil
}

// EncodeRenderResponse produces the wire form. Used by tests and the
// local loopback transport.
func EncodeRenderResponse(resp *RenderResponse) ([]byte, error) {
	bodies := make(map[string]string, len(resp.Bodies))
	for _, body := range resp.Bodies {
		bodies[body.Kind] = body.HTML
	}
	value, err := json.Marshal(bodies)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireRenderResponse{
		ID:        resp.ID,
		Responses: []wireResponseValue{{Value: value}},
	})
}

// InMemoryRenderTransport records emitted requests and lets tests
// deliver responses straight to a handler.
type InMemoryRenderTransport struct {
	handler  RenderResponseHandler
	Requests []*RenderRequest
}

// NewInMemoryRenderTransport creates a loopback transport
func NewInMemoryRenderTransport(handler RenderResponseHandler) *InMemoryRenderTransport {
	return &InMemoryRenderTransport{handler: handler}
}

// Emit records the request
func (t *InMemoryRenderTransport) Emit(_ context.Context, req *RenderRequest) error {
	t.Requests = append(t.Requests, req)
	return nil
}

// Deliver hands a response to the registered handler
func (t *InMemoryRenderTransport) Deliver(ctx context.Context, resp *RenderResponse) error {
	if t.handler == nil {
		return nil
	}
	return t.handler.HandleRenderResponse(ctx, resp)
}

// Close is a no-op
func (t *InMemoryRenderTransport) Close() error { return nil }

// Ensure InMemoryRenderTransport implements RenderTransport
var _ RenderTransport = (*InMemoryRenderTransport)(nil)
