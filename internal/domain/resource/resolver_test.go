package resource_test

import (
	"testing"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countryMap() *resource.Map {
	m := resource.NewMap("country")
	m.Set("country_de", resource.Result{Payload: resource.Entity{"id": "country_de", "name": "Germany"}})
	m.Set("country_fr", resource.Result{Payload: resource.Entity{"id": "country_fr", "name": "France"}})
	return m
}

func TestResolveSingleForeignKey(t *testing.T) {
	countries := countryMap()
	entity := resource.Entity{
		"id":         "addr_1",
		"country_id": "country_de",
		"street":     "Hauptstraße",
	}

	resolved := resource.Resolve(entity, resource.ResolverMap{
		"country_id": resource.Field("country_id", countries),
	})

	out, ok := resolved.(resource.Entity)
	require.True(t, ok)
	country, ok := out["country_id"].(resource.Entity)
	require.True(t, ok)
	assert.Equal(t, "Germany", country["name"])
	assert.Equal(t, "Hauptstraße", out["street"], "undeclared fields stay untouched")

	// input is not mutated
	assert.Equal(t, "country_de", entity["country_id"])
}

func TestResolveNestedResolverMap(t *testing.T) {
	countries := countryMap()
	organizations := resource.NewMap("organization")
	organizations.Set("org_1", resource.Result{Payload: resource.Entity{
		"id":         "org_1",
		"name":       "ACME",
		"country_id": "country_fr",
	}})

	entity := resource.Entity{"id": "cust_1", "organization_id": "org_1"}

	resolved := resource.Resolve(entity, resource.ResolverMap{
		"organization_id": resource.FieldInto("organization_id", organizations, resource.ResolverMap{
			"country_id": resource.Field("country_id", countries),
		}),
	}).(resource.Entity)

	org := resolved["organization_id"].(resource.Entity)
	country := org["country_id"].(resource.Entity)
	assert.Equal(t, "France", country["name"])
}

func TestResolveIDListPreservesSlots(t *testing.T) {
	taxes := resource.NewMap("tax")
	taxes.Set("tax_1", resource.Result{Payload: resource.Entity{"id": "tax_1", "rate": 0.19}})
	taxes.Set("tax_3", resource.Result{Payload: resource.Entity{"id": "tax_3", "rate": 0.07}})

	entity := resource.Entity{"tax_ids": []any{"tax_1", "tax_404", "tax_3"}}

	resolved := resource.Resolve(entity, resource.ResolverMap{
		"tax_ids": resource.Field("tax_ids", taxes),
	}).(resource.Entity)

	out := resolved["tax_ids"].([]any)
	require.Len(t, out, 3, "resolver never shrinks an array")
	assert.Equal(t, 0.19, out[0].(resource.Entity)["rate"])
	assert.Nil(t, out[1])
	assert.Equal(t, 0.07, out[2].(resource.Entity)["rate"])
}

func TestResolveListEntity(t *testing.T) {
	countries := countryMap()
	list := []any{
		resource.Entity{"country_id": "country_de"},
		resource.Entity{"country_id": "country_fr"},
	}

	resolved := resource.Resolve(list, resource.ResolverMap{
		"country_id": resource.Field("country_id", countries),
	}).([]any)

	require.Len(t, resolved, 2)
	assert.Equal(t, "Germany", resolved[0].(resource.Entity)["country_id"].(resource.Entity)["name"])
	assert.Equal(t, "France", resolved[1].(resource.Entity)["country_id"].(resource.Entity)["name"])
}

func TestResolveStructuralNesting(t *testing.T) {
	countries := countryMap()
	entity := resource.Entity{
		"sender": resource.Entity{
			"address": resource.Entity{"country_id": "country_de"},
		},
	}

	resolved := resource.Resolve(entity, resource.ResolverMap{
		"sender": resource.Nested{Children: resource.ResolverMap{
			"address": resource.Nested{Children: resource.ResolverMap{
				"country_id": resource.Field("country_id", countries),
			}},
		}},
	}).(resource.Entity)

	address := resolved["sender"].(resource.Entity)["address"].(resource.Entity)
	assert.Equal(t, "Germany", address["country_id"].(resource.Entity)["name"])
}

func TestResolveSiblingPathsShareOneMap(t *testing.T) {
	countries := countryMap()
	entity := resource.Entity{
		"address":  resource.Entity{"country_id": "country_de"},
		"currency": resource.Entity{"country_id": "country_fr"},
	}

	rm := resource.ResolverMap{
		"address": resource.Nested{Children: resource.ResolverMap{
			"country_id": resource.Field("country_id", countries),
		}},
		"currency": resource.Nested{Children: resource.ResolverMap{
			"country_id": resource.Field("country_id", countries),
		}},
	}

	resolved := resource.Resolve(entity, rm).(resource.Entity)
	assert.Equal(t, "Germany",
		resolved["address"].(resource.Entity)["country_id"].(resource.Entity)["name"])
	assert.Equal(t, "France",
		resolved["currency"].(resource.Entity)["country_id"].(resource.Entity)["name"])
}

func TestResolveMissingBranchesYieldNil(t *testing.T) {
	countries := countryMap()

	// missing id field
	resolved := resource.Resolve(resource.Entity{"street": "x"}, resource.ResolverMap{
		"country_id": resource.Field("country_id", countries),
	}).(resource.Entity)
	assert.Nil(t, resolved["country_id"])

	// id without map entry
	resolved = resource.Resolve(resource.Entity{"country_id": "country_404"}, resource.ResolverMap{
		"country_id": resource.Field("country_id", countries),
	}).(resource.Entity)
	assert.Nil(t, resolved["country_id"])
}

func TestResolveIsOneShot(t *testing.T) {
	countries := countryMap()
	rm := resource.ResolverMap{
		"country_id": resource.Field("country_id", countries),
	}

	once := resource.Resolve(resource.Entity{"country_id": "country_de"}, rm).(resource.Entity)
	require.NotNil(t, once["country_id"])

	// the field now holds an object, not an id: re-resolution yields nil
	twice := resource.Resolve(once, rm).(resource.Entity)
	assert.Nil(t, twice["country_id"])
}
