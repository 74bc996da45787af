// Package resource contains the pure building blocks for cross-service
// resource aggregation: fetched-resource maps, the declarative graph
// resolver and the product variant overlay merge. Nothing in this
// package performs I/O; all data is fetched upstream and handed in.
package resource

// Entity is a JSON-shaped resource payload as returned by a resource
// service bulk read. Payloads are kept dynamic because their schemas
// are owned by the remote services, not by this one.
type Entity = map[string]any

// Status is the per-item or per-operation status of a resource read
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK reports whether the status denotes success. A nil status counts
// as success so that services omitting the field behave like 200.
func (s *Status) OK() bool {
	return s == nil || s.Code == 0 || s.Code == 200
}

// Result is one fetched resource: a payload, a status, or both
type Result struct {
	Payload Entity  `json:"payload,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

// Reference is an opaque resource identifier. It is only unique within
// the id space of one resource service.
type Reference string

func (r Reference) String() string {
	return string(r)
}
