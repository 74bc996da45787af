package resource

// Node is one entry in a ResolverMap. It is a closed variant:
//
//   - Deref reads a foreign key from a source field, dereferences it
//     against a Map and optionally recurses into the resolved object.
//   - Nested recurses into a structurally nested object or list
//     without dereferencing anything at this level.
//
// A key absent from the ResolverMap leaves the field untouched.
type Node interface {
	resolverNode()
}

// ResolverMap mirrors the shape of the target entity. It is a finite
// tree; chains in the data itself (variant parents) are handled by
// MergeVariant, never by the resolver.
type ResolverMap map[string]Node

// Deref replaces the id(s) read from Field with the payloads looked
// up in Source. When Nested is non-nil the looked-up payload is
// resolved recursively against it.
type Deref struct {
	Field  string
	Source *Map
	Nested ResolverMap
}

func (Deref) resolverNode() {}

// Nested recurses into the value under the same key
type Nested struct {
	Children ResolverMap
}

func (Nested) resolverNode() {}

// Field is shorthand for a Deref node reading and writing the same key
func Field(field string, source *Map) Deref {
	return Deref{Field: field, Source: source}
}

// FieldInto is shorthand for a Deref node with a nested resolver map
func FieldInto(field string, source *Map, nested ResolverMap) Deref {
	return Deref{Field: field, Source: source, Nested: nested}
}

// Resolve rewrites entity according to rm and returns a deep-cloned
// result; the input is never mutated. Lists are resolved element-wise
// against the same map. Unresolvable branches (missing id, missing map
// entry, value that is not an id) yield nil in place rather than an
// error; strictness is the caller's concern upstream. Resolve is a
// one-shot transform: re-resolving a field that already holds an
// object yields nil because an object is not a valid key.
func Resolve(entity any, rm ResolverMap) any {
	switch v := entity.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Resolve(item, rm)
		}
		return out
	case []Entity:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Resolve(item, rm)
		}
		return out
	case Entity:
		return resolveEntity(v, rm)
	default:
		return entity
	}
}

func resolveEntity(entity Entity, rm ResolverMap) Entity {
	clone := make(Entity, len(entity))
	for k, v := range entity {
		clone[k] = v
	}
	for key, node := range rm {
		switch n := node.(type) {
		case Deref:
			clone[key] = deref(entity[n.Field], n)
		case Nested:
			if v, ok := entity[key]; ok {
				clone[key] = Resolve(v, n.Children)
			}
		}
	}
	return clone
}

// deref resolves a single id or an id list. An id list produces one
// slot per input id in input order, nil for misses; the resolver
// never shrinks an array.
func deref(value any, n Deref) any {
	switch id := value.(type) {
	case string:
		return derefOne(id, n)
	case Reference:
		return derefOne(string(id), n)
	case []string:
		out := make([]any, len(id))
		for i, one := range id {
			out[i] = derefOne(one, n)
		}
		return out
	case []any:
		out := make([]any, len(id))
		for i, item := range id {
			if one, ok := item.(string); ok {
				out[i] = derefOne(one, n)
			} else {
				out[i] = nil
			}
		}
		return out
	default:
		// missing field or a value that is not an id
		return nil
	}
}

func derefOne(id string, n Deref) any {
	payload := n.Source.Get(id)
	if payload == nil {
		return nil
	}
	if n.Nested != nil {
		return resolveEntity(payload, n.Nested)
	}
	return payload
}
