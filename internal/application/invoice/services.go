// Package invoice orchestrates the invoice rendering pipeline: number
// allocation, cross-service graph building and the asynchronous render
// saga correlating responses back to their invoices.
package invoice

import (
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
)

// Well-known resource services referenced by invoices. Endpoints are
// bound per service name through the client registry configuration.
var (
	ShopService               = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.shop", Entity: "shop"}
	CustomerService           = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.customer", Entity: "customer"}
	ProductService            = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.product", Entity: "product"}
	FulfillmentProductService = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.fulfillment_product", Entity: "fulfillment_product"}
	UserService               = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.user", Entity: "user"}
	OrganizationService       = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.organization", Entity: "organization"}
	ManufacturerService       = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.manufacturer", Entity: "manufacturer"}
	TaxService                = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.tax", Entity: "tax"}
	CurrencyService           = resourceclient.ServiceDescriptor{Name: "io.restorecommerce.currency", Entity: "currency"}
)

// Services returns every resource service this service reads from,
// used at bootstrap to bind configured endpoints to service names.
func Services() []resourceclient.ServiceDescriptor {
	return []resourceclient.ServiceDescriptor{
		ShopService,
		CustomerService,
		ProductService,
		FulfillmentProductService,
		UserService,
		OrganizationService,
		ManufacturerService,
		TaxService,
		CurrencyService,
	}
}
