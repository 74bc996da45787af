package invoice

import "context"

// Repository persists invoices
type Repository interface {
	// FindByID loads an invoice; shared.ErrNotFound when absent
	FindByID(ctx context.Context, id string) (*Invoice, error)
	// Upsert inserts or fully replaces an invoice by id
	Upsert(ctx context.Context, inv *Invoice) error
}

// CounterRepository persists per-shop number counters
type CounterRepository interface {
	// LatestForShop returns the most recent counter row for a shop
	// ordered by its update ordinate, or shared.ErrNotFound when the
	// shop has never allocated a number.
	LatestForShop(ctx context.Context, shopID string) (*NumberCounter, error)
	// Upsert inserts or replaces the counter row keyed by shop id
	Upsert(ctx context.Context, counter *NumberCounter) error
}
