package resource

import (
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
)

// MissingHandler is invoked when a lookup misses. It receives the id
// and the entity name of the map and may return an error; a non-nil
// return fails the lookup with that error, a nil return makes the
// lookup yield a nil payload.
type MissingHandler func(id, entity string) error

// NotFoundStatusHandler returns a MissingHandler producing the
// structured 404-style domain error used by aggregate reads.
func NotFoundStatusHandler() MissingHandler {
	return func(id, entity string) error {
		return shared.NewNotFoundError(entity, id)
	}
}

// Map is an identifier-keyed collection of fetched resource results
// for one entity type. At most one entry exists per identifier. A
// materialized list view is cached and invalidated on mutation.
//
// Map is not safe for concurrent mutation; instances are request
// scoped and built once by the aggregator before being read.
type Map struct {
	entity string
	items  map[string]Result
	view   []Entity
	stale  bool
}

// NewMap creates an empty Map for the named entity type
func NewMap(entity string) *Map {
	return &Map{
		entity: entity,
		items:  make(map[string]Result),
		stale:  true,
	}
}

// Entity returns the entity type this map holds
func (m *Map) Entity() string {
	return m.entity
}

// Len returns the number of entries
func (m *Map) Len() int {
	return len(m.items)
}

// Set inserts or replaces the result for an id
func (m *Map) Set(id string, r Result) {
	m.items[id] = r
	m.stale = true
}

// Delete removes the entry for an id
func (m *Map) Delete(id string) {
	delete(m.items, id)
	m.stale = true
}

// Clear removes all entries
func (m *Map) Clear() {
	m.items = make(map[string]Result)
	m.stale = true
}

// Result returns the raw result for an id and whether it exists
func (m *Map) Result(id string) (Result, bool) {
	r, ok := m.items[id]
	return r, ok
}

// Get returns the payload for an id, or nil when the id is absent.
// This is the permissive lookup used by the graph resolver: a failed
// join on one branch must not abort the whole graph.
func (m *Map) Get(id string) Entity {
	return m.items[id].Payload
}

// GetWith looks up an id, delegating the missing case to onMissing.
// A nil onMissing behaves like Get.
func (m *Map) GetWith(id string, onMissing MissingHandler) (Entity, error) {
	if r, ok := m.items[id]; ok {
		return r.Payload, nil
	}
	if onMissing != nil {
		if err := onMissing(id, m.entity); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// MustGet is the strict lookup: a missing id is an error naming the
// entity and id.
func (m *Map) MustGet(id string) (Entity, error) {
	return m.GetWith(id, NotFoundStatusHandler())
}

// GetMany returns one payload slot per input id, preserving input
// order. Misses yield nil slots; the result never shrinks.
func (m *Map) GetMany(ids []string, onMissing MissingHandler) ([]Entity, error) {
	out := make([]Entity, len(ids))
	for i, id := range ids {
		payload, err := m.GetWith(id, onMissing)
		if err != nil {
			return nil, err
		}
		out[i] = payload
	}
	return out, nil
}

// Values returns the materialized list of all payloads. The view is
// cached and recomputed lazily after any mutation. Order is not
// significant.
func (m *Map) Values() []Entity {
	if m.stale {
		m.view = make([]Entity, 0, len(m.items))
		for _, r := range m.items {
			if r.Payload != nil {
				m.view = append(m.view, r.Payload)
			}
		}
		m.stale = false
	}
	return m.view
}

// IDs returns the identifiers currently present in the map
func (m *Map) IDs() []string {
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	return ids
}
