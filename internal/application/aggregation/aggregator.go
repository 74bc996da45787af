package aggregation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxBulkIDs is the hard ceiling on one bulk read. Exceeding it is a
// backpressure rejection issued before any RPC, not a transient error.
const MaxBulkIDs = 1000

// ClientProvider resolves a client for a resource service. Satisfied
// by *resourceclient.Registry.
type ClientProvider interface {
	Get(service resourceclient.ServiceDescriptor) (resourceclient.Client, error)
}

// Source describes one aggregation branch: which service to read,
// how to extract the ids from the (possibly partially aggregated)
// target, and the container key the fetched map is attached under.
// Callers must keep container keys collision-free across sources of
// one pass; the merge is last-writer-wins and not runtime-checked.
type Source struct {
	Service   resourceclient.ServiceDescriptor
	Container string
	Extract   func(target *Aggregation) []string
}

// Aggregator fans bulk reads out to resource services and assembles
// aggregation envelopes.
type Aggregator struct {
	clients ClientProvider
	logger  *zap.Logger
}

// NewAggregator creates an Aggregator
func NewAggregator(clients ClientProvider, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{clients: clients, logger: logger}
}

// GetByIDs deduplicates ids and issues a single bulk read ("id in
// [...]") against the service, wrapping the result in a resource map.
// More than MaxBulkIDs unique ids fail fast with zero RPCs issued. A
// non-OK operation status aborts the branch.
func (ag *Aggregator) GetByIDs(ctx context.Context, ids []string, service resourceclient.ServiceDescriptor, subject *resourceclient.Subject) (*resource.Map, error) {
	unique := dedupe(ids)
	out := resource.NewMap(service.Entity)
	if len(unique) == 0 {
		return out, nil
	}
	if len(unique) > MaxBulkIDs {
		return nil, fmt.Errorf("%w: %d ids for %s, maximum is %d",
			shared.ErrTooManyIDs, len(unique), service.Name, MaxBulkIDs)
	}

	client, err := ag.clients.Get(service)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(unique)
	if err != nil {
		return nil, fmt.Errorf("failed to encode id filter: %w", err)
	}

	resp, err := client.BulkRead(ctx, &resourceclient.BulkReadRequest{
		Filter: resourceclient.Filter{
			Field:     "id",
			Operation: resourceclient.FilterOperationIn,
			Type:      resourceclient.FilterTypeArray,
			Value:     string(encoded),
		},
		Subject: subject,
		Limit:   len(unique),
	})
	if err != nil {
		return nil, err
	}
	if !resp.OperationStatus.OK() {
		return nil, fmt.Errorf("%w: %s read returned %d %s",
			shared.ErrUpstreamFailed, service.Name, resp.OperationStatus.Code, resp.OperationStatus.Message)
	}

	for _, item := range resp.Items {
		id := itemID(item)
		if id == "" {
			continue
		}
		out.Set(id, item)
	}
	return out, nil
}

// Aggregate fetches every source concurrently and attaches the
// resulting maps to a shallow copy of target, merged with an optional
// template of pre-built maps. The merge runs only after every branch
// settled; one failing branch fails the whole call. Multi-pass
// aggregation is achieved by chaining calls, pass ordering is the
// caller's responsibility.
func (ag *Aggregator) Aggregate(ctx context.Context, target *Aggregation, sources []Source, template map[string]*resource.Map, subject *resourceclient.Subject) (*Aggregation, error) {
	fetched := make([]*resource.Map, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, source := range sources {
		g.Go(func() error {
			ids := source.Extract(target)
			m, err := ag.GetByIDs(gctx, ids, source.Service, subject)
			if err != nil {
				return fmt.Errorf("aggregating %s: %w", source.Container, err)
			}
			fetched[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ag.logger.Error("aggregation pass failed", zap.Error(err))
		return nil, err
	}

	out := target.shallowCopy()
	for container, m := range template {
		out.attach(container, m)
	}
	for i, source := range sources {
		out.attach(source.Container, fetched[i])
	}
	return out, nil
}

// dedupe keeps the first occurrence of every non-empty id
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func itemID(item resource.Result) string {
	if item.Payload == nil {
		return ""
	}
	id, _ := item.Payload["id"].(string)
	return id
}
