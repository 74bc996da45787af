package invoice

import (
	"context"
	"fmt"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/application/aggregation"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"go.uber.org/zap"
)

// Container keys the aggregation passes attach their maps under
const (
	containerShops               = "shops"
	containerCustomers           = "customers"
	containerProducts            = "products"
	containerFulfillmentProducts = "fulfillment_products"
	containerCurrencies          = "currencies"
	containerUsers               = "users"
	containerOrganizations       = "organizations"
	containerManufacturers       = "manufacturers"
	containerTaxes               = "taxes"
)

// GraphBuilder materializes the dereferenced object graph for a list
// of invoices: two chained aggregation passes followed by resolver
// rewriting and per-position variant merging. The second pass derives
// its ids from maps attached by the first, so the passes compose
// sequentially while the branches inside each pass fetch concurrently.
type GraphBuilder struct {
	aggregator *aggregation.Aggregator
	logger     *zap.Logger
}

// NewGraphBuilder creates a GraphBuilder
func NewGraphBuilder(aggregator *aggregation.Aggregator, logger *zap.Logger) *GraphBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphBuilder{aggregator: aggregator, logger: logger}
}

// BuildGraph returns one fully dereferenced entity per input invoice.
// A failing aggregation branch aborts the whole build; missing
// individual references resolve to nil in place.
func (g *GraphBuilder) BuildGraph(ctx context.Context, invoices []*invoice.Invoice, subject *resourceclient.Subject) ([]resource.Entity, error) {
	payloads := make([]resource.Entity, len(invoices))
	for i, inv := range invoices {
		p, err := inv.Payload()
		if err != nil {
			return nil, fmt.Errorf("serializing invoice %s: %w", inv.ID, err)
		}
		payloads[i] = p
	}

	target := aggregation.NewAggregation(payloads)

	pass1, err := g.aggregator.Aggregate(ctx, target, []aggregation.Source{
		{Service: ShopService, Container: containerShops, Extract: extractField("shop_id")},
		{Service: CustomerService, Container: containerCustomers, Extract: extractField("customer_id")},
		{Service: CurrencyService, Container: containerCurrencies, Extract: extractField("currency_id")},
		{Service: ProductService, Container: containerProducts, Extract: extractPositionField("product_id")},
		{Service: FulfillmentProductService, Container: containerFulfillmentProducts, Extract: extractPositionField("fulfillment_product_id")},
	}, nil, subject)
	if err != nil {
		return nil, err
	}

	pass2, err := g.aggregator.Aggregate(ctx, pass1, []aggregation.Source{
		{Service: UserService, Container: containerUsers, Extract: extractUsers},
		{Service: OrganizationService, Container: containerOrganizations, Extract: extractOrganizations},
		{Service: ManufacturerService, Container: containerManufacturers, Extract: extractMapField(containerProducts, "manufacturer_id")},
		{Service: TaxService, Container: containerTaxes, Extract: extractPositionIDList("tax_ids")},
	}, nil, subject)
	if err != nil {
		return nil, err
	}

	rm := resolverMapFor(pass2)
	resolved := resource.Resolve(payloads, rm)

	list, ok := resolved.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected resolver output for invoice list")
	}
	out := make([]resource.Entity, len(list))
	for i, item := range list {
		entity, ok := item.(resource.Entity)
		if !ok {
			return nil, fmt.Errorf("unexpected resolver output for invoice %d", i)
		}
		mergePositionVariants(entity)
		out[i] = entity
	}
	return out, nil
}

// resolverMapFor binds the fetched maps into the resolver tree that
// mirrors an invoice. Sibling nodes deliberately share maps: the same
// organization map backs both the shop and the customer branch.
func resolverMapFor(agg *aggregation.Aggregation) resource.ResolverMap {
	organizations := agg.Map(containerOrganizations)
	users := agg.Map(containerUsers)

	return resource.ResolverMap{
		"shop": resource.FieldInto("shop_id", agg.Map(containerShops), resource.ResolverMap{
			"organization": resource.Field("organization_id", organizations),
		}),
		"customer": resource.FieldInto("customer_id", agg.Map(containerCustomers), resource.ResolverMap{
			"user":         resource.Field("user_id", users),
			"organization": resource.Field("organization_id", organizations),
		}),
		"user":     resource.Field("user_id", users),
		"currency": resource.Field("currency_id", agg.Map(containerCurrencies)),
		"positions": resource.Nested{Children: resource.ResolverMap{
			"product": resource.FieldInto("product_id", agg.Map(containerProducts), resource.ResolverMap{
				"manufacturer": resource.Field("manufacturer_id", agg.Map(containerManufacturers)),
			}),
			"fulfillment_product": resource.Field("fulfillment_product_id", agg.Map(containerFulfillmentProducts)),
			"taxes":               resource.Field("tax_ids", agg.Map(containerTaxes)),
		}},
	}
}

// Variant nature keys on a product payload
var natureKeys = []string{"physical", "virtual", "service"}

// mergePositionVariants replaces each position's resolved product
// with the flattened variant overlay. A variant id that does not
// resolve leaves the position without a materialized product.
func mergePositionVariants(entity resource.Entity) {
	positions, ok := entity["positions"].([]any)
	if !ok {
		return
	}
	for _, p := range positions {
		position, ok := p.(resource.Entity)
		if !ok {
			continue
		}
		variantID, _ := position["variant_id"].(string)
		if variantID == "" {
			continue
		}
		product, ok := position["product"].(resource.Entity)
		if !ok || product == nil {
			continue
		}

		var merged resource.Entity
		for _, key := range natureKeys {
			nature, ok := product[key].(resource.Entity)
			if !ok {
				continue
			}
			if merged = resource.MergeVariant(nature, variantID); merged != nil {
				break
			}
		}
		if merged == nil {
			// product reference could not be materialized
			position["product"] = nil
			continue
		}

		flat := make(resource.Entity, len(product)+len(merged))
		for k, v := range product {
			flat[k] = v
		}
		for _, key := range natureKeys {
			delete(flat, key)
		}
		for k, v := range merged {
			if k == "parent_variant_id" {
				continue
			}
			flat[k] = v
		}
		position["product"] = flat
	}
}

// extractField collects one scalar id field across all invoices
func extractField(field string) func(*aggregation.Aggregation) []string {
	return func(target *aggregation.Aggregation) []string {
		var ids []string
		for _, entity := range invoiceEntities(target) {
			if id, ok := entity[field].(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	}
}

// extractPositionField collects one scalar id field across all positions
func extractPositionField(field string) func(*aggregation.Aggregation) []string {
	return func(target *aggregation.Aggregation) []string {
		var ids []string
		forEachPosition(target, func(position resource.Entity) {
			if id, ok := position[field].(string); ok && id != "" {
				ids = append(ids, id)
			}
		})
		return ids
	}
}

// extractPositionIDList collects an id-list field across all positions
func extractPositionIDList(field string) func(*aggregation.Aggregation) []string {
	return func(target *aggregation.Aggregation) []string {
		var ids []string
		forEachPosition(target, func(position resource.Entity) {
			list, ok := position[field].([]any)
			if !ok {
				return
			}
			for _, item := range list {
				if id, ok := item.(string); ok && id != "" {
					ids = append(ids, id)
				}
			}
		})
		return ids
	}
}

// extractMapField collects one scalar id field from the payloads of a
// map attached by an earlier pass.
func extractMapField(container, field string) func(*aggregation.Aggregation) []string {
	return func(target *aggregation.Aggregation) []string {
		var ids []string
		for _, payload := range target.Map(container).Values() {
			if id, ok := payload[field].(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	}
}

// extractUsers derives user ids from the invoices themselves and from
// the customers fetched in pass 1.
func extractUsers(target *aggregation.Aggregation) []string {
	ids := extractField("user_id")(target)
	return append(ids, extractMapField(containerCustomers, "user_id")(target)...)
}

// extractOrganizations derives organization ids from pass-1 shops and
// customers.
func extractOrganizations(target *aggregation.Aggregation) []string {
	ids := extractMapField(containerShops, "organization_id")(target)
	return append(ids, extractMapField(containerCustomers, "organization_id")(target)...)
}

func invoiceEntities(target *aggregation.Aggregation) []resource.Entity {
	entities, _ := target.Entity.([]resource.Entity)
	return entities
}

func forEachPosition(target *aggregation.Aggregation, fn func(resource.Entity)) {
	for _, entity := range invoiceEntities(target) {
		positions, ok := entity["positions"].([]any)
		if !ok {
			continue
		}
		for _, p := range positions {
			if position, ok := p.(resource.Entity); ok {
				fn(position)
			}
		}
	}
}
