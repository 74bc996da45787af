package resourceclient

import (
	"sync"
	"time"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// ServiceConfig is the per-service client configuration block
type ServiceConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// RegistryConfig configures the client registry. Services maps full
// service names to their client configuration; Clients is the generic
// fallback block scanned when no dedicated entry matches.
type RegistryConfig struct {
	Services map[string]ServiceConfig
	Clients  map[string]ServiceConfig
}

// Registry lazily creates and caches one client per resource service,
// keyed by full service name. It is process-wide state: constructed
// once at startup, shut down once at exit, never re-created
// mid-process. Writes are guarded because clients are built lazily on
// first use from concurrent aggregation branches.
type Registry struct {
	config  RegistryConfig
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[string]Client
}

// NewRegistry creates a client registry from configuration
func NewRegistry(config RegistryConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		config:  config,
		logger:  logger,
		clients: make(map[string]Client),
	}
}

// Get returns the cached client for a service, building it on first
// use. Lookup order: dedicated service entry, then the generic client
// block by full name. No match is a configuration error, fatal for
// the calling operation and never retried here.
func (r *Registry) Get(service ServiceDescriptor) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[service.Name]; ok {
		return client, nil
	}

	cfg, ok := r.config.Services[service.Name]
	if !ok {
		cfg, ok = r.config.Clients[service.Name]
	}
	if !ok || cfg.Endpoint == "" {
		return nil, shared.ErrClientNotConfigured
	}

	client := NewHTTPClient(service, HTTPClientConfig{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.Timeout,
		Logger:   r.logger,
	})
	r.clients[service.Name] = client
	r.logger.Debug("resource client created",
		zap.String("service", service.Name),
		zap.String("endpoint", cfg.Endpoint),
	)
	return client, nil
}

// Shutdown closes all held clients
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, client := range r.clients {
		if err := client.Close(); err != nil {
			r.logger.Warn("failed to close resource client",
				zap.String("service", name),
				zap.Error(err),
			)
		}
	}
	r.clients = make(map[string]Client)
}
