package resourceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	// maxResponseSize limits the response body size to prevent memory
	// exhaustion on a misbehaving upstream
	maxResponseSize = 32 * 1024 * 1024

	defaultTimeout = 10 * time.Second
)

// HTTPClientConfig configures one HTTP bulk-read client
type HTTPClientConfig struct {
	// Endpoint is the base URL of the resource service
	Endpoint string
	// Timeout per request; defaults to 10s
	Timeout time.Duration
	// Logger for request failures
	Logger *zap.Logger
}

// HTTPClient implements Client over the JSON/HTTP bulk read contract.
// Calls go through a circuit breaker so that a dead resource service
// fails the aggregation branch fast instead of stacking timeouts.
type HTTPClient struct {
	service    ServiceDescriptor
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewHTTPClient creates a bulk-read client for one resource service
func NewHTTPClient(service ServiceDescriptor, cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    service.Name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPClient{
		service:  service,
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
		logger:  logger,
	}
}

// BulkRead issues one filtered read against the service's read endpoint
func (c *HTTPClient) BulkRead(ctx context.Context, req *BulkReadRequest) (*BulkReadResponse, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.doRead(ctx, req)
	})
	if err != nil {
		c.logger.Warn("bulk read failed",
			zap.String("service", c.service.Name),
			zap.Error(err),
		)
		return nil, err
	}
	return result.(*BulkReadResponse), nil
}

func (c *HTTPClient) doRead(ctx context.Context, req *BulkReadRequest) (*BulkReadResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bulk read request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/read", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build bulk read request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("bulk read against %s failed: %w", c.service.Name, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bulk read against %s returned HTTP %d", c.service.Name, httpResp.StatusCode)
	}

	var resp BulkReadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode bulk read response from %s: %w", c.service.Name, err)
	}
	return &resp, nil
}

// Close releases idle connections held by the client
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
