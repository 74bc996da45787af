// Package resourceclient provides bulk-read clients for the remote
// resource services (shop, customer, product, tax, ...) and the
// process-wide registry caching one client per service identity.
package resourceclient

import (
	"context"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
)

// Filter operations understood by the bulk read contract
const (
	FilterOperationIn = "in"
	FilterTypeArray   = "array"
)

// ServiceDescriptor identifies one remote resource service
type ServiceDescriptor struct {
	// Name is the full service name, e.g. "io.restorecommerce.shop"
	Name string
	// Entity is the entity type the service serves, e.g. "shop"
	Entity string
}

// Subject is the caller identity forwarded to resource services
type Subject struct {
	ID    string `json:"id,omitempty"`
	Token string `json:"token,omitempty"`
}

// Filter is the single filter shape used by bulk reads: id IN [...]
type Filter struct {
	Field     string `json:"field"`
	Operation string `json:"operation"`
	Type      string `json:"type"`
	// Value is the JSON-encoded id array
	Value string `json:"value"`
}

// BulkReadRequest is the wire request for one bulk read
type BulkReadRequest struct {
	Filter  Filter   `json:"filter"`
	Subject *Subject `json:"subject,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// BulkReadResponse is the wire response for one bulk read
type BulkReadResponse struct {
	Items           []resource.Result `json:"items"`
	OperationStatus resource.Status   `json:"operation_status"`
}

// Client reads resources in bulk from one resource service
type Client interface {
	BulkRead(ctx context.Context, req *BulkReadRequest) (*BulkReadResponse, error)
	Close() error
}
