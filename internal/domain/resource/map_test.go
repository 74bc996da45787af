package resource_test

import (
	"testing"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShopMap() *resource.Map {
	m := resource.NewMap("shop")
	m.Set("shop_1", resource.Result{Payload: resource.Entity{"id": "shop_1", "name": "Shop One"}})
	m.Set("shop_2", resource.Result{Payload: resource.Entity{"id": "shop_2", "name": "Shop Two"}})
	return m
}

func TestMapGet(t *testing.T) {
	m := newShopMap()

	payload := m.Get("shop_1")
	require.NotNil(t, payload)
	assert.Equal(t, "Shop One", payload["name"])

	assert.Nil(t, m.Get("shop_404"))
}

func TestMapMustGet(t *testing.T) {
	m := newShopMap()

	_, err := m.MustGet("shop_1")
	assert.NoError(t, err)

	_, err = m.MustGet("shop_404")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Contains(t, domainErr.Message, "shop")
	assert.Contains(t, domainErr.Message, "shop_404")
}

func TestMapGetManyPreservesOrderAndMisses(t *testing.T) {
	m := newShopMap()

	out, err := m.GetMany([]string{"shop_2", "shop_404", "shop_1"}, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Shop Two", out[0]["name"])
	assert.Nil(t, out[1])
	assert.Equal(t, "Shop One", out[2]["name"])
}

func TestMapGetManyStrictHandler(t *testing.T) {
	m := newShopMap()

	_, err := m.GetMany([]string{"shop_1", "shop_404"}, resource.NotFoundStatusHandler())
	assert.Error(t, err)
}

func TestMapSetReplacesEntry(t *testing.T) {
	m := newShopMap()
	m.Set("shop_1", resource.Result{Payload: resource.Entity{"id": "shop_1", "name": "Renamed"}})

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "Renamed", m.Get("shop_1")["name"])
}

func TestMapValuesViewInvalidation(t *testing.T) {
	m := newShopMap()
	assert.Len(t, m.Values(), 2)

	m.Delete("shop_2")
	assert.Len(t, m.Values(), 1, "view is recomputed after a mutation")

	m.Set("shop_3", resource.Result{Payload: resource.Entity{"id": "shop_3"}})
	assert.Len(t, m.Values(), 2)

	m.Clear()
	assert.Empty(t, m.Values())
}
