// Package cache provides the fast path for invoice number allocation:
// a per-shop counter cache fronting the durable counter store.
package cache

import "context"

// CounterCache holds the current counter value per shop as an
// optimization. Once the durable store has been consulted it is not
// the source of truth; a lost cache entry only costs one cold read.
type CounterCache interface {
	// Increment atomically adds by to the shop's counter and returns
	// the new value. found is false when no entry exists for the shop
	// (the cold-cache case); no entry is created then.
	Increment(ctx context.Context, shopID string, by int64) (value int64, found bool, err error)
	// Prime seeds the shop's counter if and only if no entry exists.
	// Returns true when the seed was written.
	Prime(ctx context.Context, shopID string, value int64) (bool, error)
	// Current reads the shop's counter without modifying it
	Current(ctx context.Context, shopID string) (value int64, found bool, err error)
}
