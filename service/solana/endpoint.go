package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"sync"

	"github.com/brojonat/ledgerlens/service/metrics"
)

// SelectRandomEndpoint picks one endpoint uniformly at random.
func SelectRandomEndpoint(endpoints []string) (string, error) {
	if len(endpoints) == 0 {
		return "", errors.New("no RPC endpoints configured")
	}
	return endpoints[rand.IntN(len(endpoints))], nil
}

// HealthProbe reports whether the node behind an endpoint answers.
type HealthProbe func(ctx context.Context, endpoint string) error

// RPCHealthProbe probes an endpoint with the getHealth RPC call.
func RPCHealthProbe(ctx context.Context, endpoint string) error {
	_, err := NewRPCClient(endpoint).GetHealth(ctx)
	return err
}

// DiscoverEndpoint walks the candidates in random order and returns the first
// one whose probe succeeds. Each candidate is tried once.
func DiscoverEndpoint(ctx context.Context, endpoints []string, probe HealthProbe, logger *slog.Logger) (string, error) {
	if len(endpoints) == 0 {
		return "", errors.New("no RPC endpoints configured")
	}

	candidates := make([]string, len(endpoints))
	copy(candidates, endpoints)
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	var errs []error
	for _, endpoint := range candidates {
		if err := probe(ctx, endpoint); err != nil {
			logger.WarnContext(ctx, "RPC endpoint unhealthy",
				"endpoint", endpointLabel(endpoint),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", endpointLabel(endpoint), err))
			continue
		}
		return endpoint, nil
	}
	return "", fmt.Errorf("no healthy RPC endpoint: %w", errors.Join(errs...))
}

// Provider lazily discovers an endpoint and builds a Client on first use.
// Later calls return the same Client for the life of the Provider. A failed
// discovery is not cached, so the next call tries again.
type Provider struct {
	endpoints []string
	probe     HealthProbe
	newRPC    func(endpoint string) RPCClient
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu     sync.Mutex
	client *Client
}

// NewProvider creates a Provider over the candidate endpoints.
// A nil probe defaults to RPCHealthProbe.
func NewProvider(endpoints []string, probe HealthProbe, m *metrics.Metrics, logger *slog.Logger) *Provider {
	if probe == nil {
		probe = RPCHealthProbe
	}
	return &Provider{
		endpoints: endpoints,
		probe:     probe,
		newRPC:    NewRPCClient,
		metrics:   m,
		logger:    logger,
	}
}

// Get returns the shared Client, discovering an endpoint if none is bound yet.
func (p *Provider) Get(ctx context.Context) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	endpoint, err := DiscoverEndpoint(ctx, p.endpoints, p.probe, p.logger)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordEndpointDiscovery(status)
	}
	if err != nil {
		return nil, err
	}

	label := endpointLabel(endpoint)
	p.client = NewClient(p.newRPC(endpoint), label, p.metrics, p.logger)
	p.logger.InfoContext(ctx, "bound solana RPC client", "endpoint", label)
	return p.client, nil
}

// endpointLabel reduces an endpoint URL to its host so API keys in paths or
// query strings never reach logs or metric labels.
func endpointLabel(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
