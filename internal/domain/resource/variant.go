package resource

// variantsField is the key under which a product nature carries its
// flat variant list.
const variantsField = "variants"

// MergeVariant materializes a product variant from a product nature
// (physical, virtual or service) by walking its parent chain and
// overlaying fields root-to-leaf: the parent is resolved first, then
// the requested variant's own fields win on top, so a field absent in
// the leaf survives from the nearest ancestor defining it.
//
// The variant data is owned by an external catalog and assumed
// acyclic; a visited set stops a poisoned chain and returns the
// overlay accumulated so far instead of recursing forever. A missing
// variant id yields nil, which callers must treat as "product
// reference could not be materialized".
func MergeVariant(nature Entity, variantID string) Entity {
	return mergeVariant(nature, variantID, map[string]bool{})
}

func mergeVariant(nature Entity, variantID string, visited map[string]bool) Entity {
	if nature == nil || visited[variantID] {
		return nil
	}
	visited[variantID] = true

	variant := findVariant(nature, variantID)
	if variant == nil {
		return nil
	}

	parentID, _ := variant["parent_variant_id"].(string)
	if parentID == "" {
		// root of the chain resolves to itself
		return cloneEntity(variant)
	}

	merged := mergeVariant(nature, parentID, visited)
	if merged == nil {
		merged = Entity{}
	}
	for k, v := range variant {
		merged[k] = v
	}
	return merged
}

func findVariant(nature Entity, variantID string) Entity {
	variants, _ := nature[variantsField].([]any)
	for _, item := range variants {
		variant, ok := item.(Entity)
		if !ok {
			continue
		}
		if id, _ := variant["id"].(string); id == variantID {
			return variant
		}
	}
	return nil
}

func cloneEntity(e Entity) Entity {
	clone := make(Entity, len(e))
	for k, v := range e {
		clone[k] = v
	}
	return clone
}
