package aggregation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/application/aggregation"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves bulk reads from an in-memory fixture set and
// counts issued calls.
type fakeClient struct {
	entity string
	data   map[string]resource.Entity
	status *resource.Status
	calls  atomic.Int32
	lastIn []string
}

func (f *fakeClient) BulkRead(_ context.Context, req *resourceclient.BulkReadRequest) (*resourceclient.BulkReadResponse, error) {
	f.calls.Add(1)

	var ids []string
	if err := json.Unmarshal([]byte(req.Filter.Value), &ids); err != nil {
		return nil, err
	}
	f.lastIn = ids

	resp := &resourceclient.BulkReadResponse{
		OperationStatus: resource.Status{Code: 200, Message: "success"},
	}
	if f.status != nil {
		resp.OperationStatus = *f.status
	}
	for _, id := range ids {
		if payload, ok := f.data[id]; ok {
			resp.Items = append(resp.Items, resource.Result{Payload: payload})
		}
	}
	return resp, nil
}

func (f *fakeClient) Close() error { return nil }

// fakeProvider maps service names to fake clients
type fakeProvider struct {
	clients map[string]*fakeClient
}

func (p *fakeProvider) Get(service resourceclient.ServiceDescriptor) (resourceclient.Client, error) {
	client, ok := p.clients[service.Name]
	if !ok {
		return nil, shared.ErrClientNotConfigured
	}
	return client, nil
}

var (
	shopSvc     = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.shop", Entity: "shop"}
	customerSvc = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.customer", Entity: "customer"}
	userSvc     = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.user", Entity: "user"}
)

func newProvider() *fakeProvider {
	return &fakeProvider{clients: map[string]*fakeClient{
		shopSvc.Name: {entity: "shop", data: map[string]resource.Entity{
			"shop_1": {"id": "shop_1", "name": "Shop One"},
			"shop_2": {"id": "shop_2", "name": "Shop Two"},
		}},
		customerSvc.Name: {entity: "customer", data: map[string]resource.Entity{
			"customer_1": {"id": "customer_1", "user_id": "user_1"},
		}},
		userSvc.Name: {entity: "user", data: map[string]resource.Entity{
			"user_1": {"id": "user_1", "email": "one@example.com"},
		}},
	}}
}

func TestGetByIDsDeduplicates(t *testing.T) {
	provider := newProvider()
	ag := aggregation.NewAggregator(provider, nil)

	m, err := ag.GetByIDs(context.Background(),
		[]string{"shop_1", "shop_2", "shop_1", "", "shop_2"}, shopSvc, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"shop_1", "shop_2"}, provider.clients[shopSvc.Name].lastIn)
	assert.Equal(t, int32(1), provider.clients[shopSvc.Name].calls.Load(), "one bulk RPC per call")
}

func TestGetByIDsEmptyInputIssuesNoRPC(t *testing.T) {
	provider := newProvider()
	ag := aggregation.NewAggregator(provider, nil)

	m, err := ag.GetByIDs(context.Background(), nil, shopSvc, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, int32(0), provider.clients[shopSvc.Name].calls.Load())
}

func TestGetByIDsBulkGuard(t *testing.T) {
	provider := newProvider()
	ag := aggregation.NewAggregator(provider, nil)

	ids := make([]string, 1001)
	for i := range ids {
		ids[i] = fmt.Sprintf("shop_%d", i)
	}

	_, err := ag.GetByIDs(context.Background(), ids, shopSvc, nil)
	require.ErrorIs(t, err, shared.ErrTooManyIDs)
	assert.Equal(t, int32(0), provider.clients[shopSvc.Name].calls.Load(), "guard fires before any RPC")
}

func TestGetByIDsUpstreamFailureAbortsBranch(t *testing.T) {
	provider := newProvider()
	provider.clients[shopSvc.Name].status = &resource.Status{Code: 500, Message: "boom"}
	ag := aggregation.NewAggregator(provider, nil)

	_, err := ag.GetByIDs(context.Background(), []string{"shop_1"}, shopSvc, nil)
	assert.ErrorIs(t, err, shared.ErrUpstreamFailed)
}

func TestAggregateFetchesSourcesConcurrentlyAndAttaches(t *testing.T) {
	provider := newProvider()
	ag := aggregation.NewAggregator(provider, nil)

	entity := resource.Entity{"id": "inv_1", "shop_id": "shop_1", "customer_id": "customer_1"}
	target := aggregation.NewAggregation(entity)

	agg, err := ag.Aggregate(context.Background(), target, []aggregation.Source{
		{
			Service:   shopSvc,
			Container: "shops",
			Extract: func(*aggregation.Aggregation) []string {
				return []string{"shop_1"}
			},
		},
		{
			Service:   customerSvc,
			Container: "customers",
			Extract: func(*aggregation.Aggregation) []string {
				return []string{"customer_1"}
			},
		},
	}, nil, nil)
	require.NoError(t, err)

	assert.True(t, agg.Has("shops"))
	assert.True(t, agg.Has("customers"))
	assert.Equal(t, "Shop One", agg.Map("shops").Get("shop_1")["name"])

	// the input envelope is untouched
	assert.False(t, target.Has("shops"))
}

func TestAggregateSecondPassConsumesFirstPassMaps(t *testing.T) {
	provider := newProvider()
	ag := aggregation.NewAggregator(provider, nil)

	entity := resource.Entity{"id": "inv_1", "customer_id": "customer_1"}
	pass1, err := ag.Aggregate(context.Background(), aggregation.NewAggregation(entity),
		[]aggregation.Source{{
			Service:   customerSvc,
			Container: "customers",
			Extract: func(*aggregation.Aggregation) []string {
				return []string{"customer_1"}
			},
		}}, nil, nil)
	require.NoError(t, err)

	pass2, err := ag.Aggregate(context.Background(), pass1,
		[]aggregation.Source{{
			Service:   userSvc,
			Container: "users",
			Extract: func(target *aggregation.Aggregation) []string {
				var ids []string
				for _, customer := range target.Map("customers").Values() {
					if userID, ok := customer["user_id"].(string); ok {
						ids = append(ids, userID)
					}
				}
				return ids
			},
		}}, nil, nil)
	require.NoError(t, err)

	// pass 2 keeps pass-1 containers and adds its own
	assert.True(t, pass2.Has("customers"))
	assert.Equal(t, "one@example.com", pass2.Map("users").Get("user_1")["email"])
}

func TestAggregateFailingBranchFailsTheCall(t *testing.T) {
	provider := newProvider()
	ag := aggregation.NewAggregator(provider, nil)

	_, err := ag.Aggregate(context.Background(),
		aggregation.NewAggregation(resource.Entity{}),
		[]aggregation.Source{{
			Service:   resourceclient.ServiceDescriptor{Name: "io.restorecommerce.unknown", Entity: "unknown"},
			Container: "unknowns",
			Extract:   func(*aggregation.Aggregation) []string { return []string{"x"} },
		}}, nil, nil)
	assert.ErrorIs(t, err, shared.ErrClientNotConfigured)
}

func TestAggregateTemplateMapsAttached(t *testing.T) {
	provider := newProvider()
	ag := aggregation.NewAggregator(provider, nil)

	prebuilt := resource.NewMap("currency")
	prebuilt.Set("cur_eur", resource.Result{Payload: resource.Entity{"id": "cur_eur", "symbol": "€"}})

	agg, err := ag.Aggregate(context.Background(),
		aggregation.NewAggregation(resource.Entity{}),
		nil,
		map[string]*resource.Map{"currencies": prebuilt}, nil)
	require.NoError(t, err)
	assert.Equal(t, "€", agg.Map("currencies").Get("cur_eur")["symbol"])
}
