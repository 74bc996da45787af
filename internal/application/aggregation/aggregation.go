// Package aggregation implements the cross-service resource
// aggregation engine: bulk id reads through the client registry and
// multi-source aggregation envelopes consumed by the graph resolver.
package aggregation

import (
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
)

// Aggregation wraps an entity (or entity list) together with the
// named resource maps attached by aggregation passes. A pass never
// removes or renames previously attached maps; passes compose by
// chaining, so a later pass may derive its ids from maps attached by
// an earlier one. Aggregations are request-scoped and own no durable
// state.
type Aggregation struct {
	Entity any
	maps   map[string]*resource.Map
}

// NewAggregation wraps an entity in an empty aggregation envelope
func NewAggregation(entity any) *Aggregation {
	return &Aggregation{
		Entity: entity,
		maps:   make(map[string]*resource.Map),
	}
}

// Map returns the resource map attached under a container key, or an
// empty map of unknown entity when absent so that extractors reading
// an earlier pass need no nil checks.
func (a *Aggregation) Map(container string) *resource.Map {
	if m, ok := a.maps[container]; ok {
		return m
	}
	return resource.NewMap(container)
}

// Has reports whether a container key has been attached
func (a *Aggregation) Has(container string) bool {
	_, ok := a.maps[container]
	return ok
}

// Containers returns the attached container keys
func (a *Aggregation) Containers() []string {
	keys := make([]string, 0, len(a.maps))
	for k := range a.maps {
		keys = append(keys, k)
	}
	return keys
}

// attach sets a map under a container key, last writer wins
func (a *Aggregation) attach(container string, m *resource.Map) {
	a.maps[container] = m
}

// shallowCopy clones the envelope without cloning the maps themselves
func (a *Aggregation) shallowCopy() *Aggregation {
	out := &Aggregation{
		Entity: a.Entity,
		maps:   make(map[string]*resource.Map, len(a.maps)),
	}
	for k, v := range a.maps {
		out.maps[k] = v
	}
	return out
}
