package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal        *prometheus.CounterVec
	solanaRPCCallDuration      *prometheus.HistogramVec
	solanaRPCSignaturesPerCall *prometheus.HistogramVec
	endpointDiscoveriesTotal   *prometheus.CounterVec

	// Lookup Metrics
	lookupsTotal       *prometheus.CounterVec
	lookupDuration     *prometheus.HistogramVec
	fieldFetchesTotal  *prometheus.CounterVec
	lookupTransactions prometheus.Histogram

	// Market Data Metrics
	marketFetchesTotal  *prometheus.CounterVec
	marketFetchDuration prometheus.Histogram

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		solanaRPCSignaturesPerCall: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_signatures_per_call",
				Help:    "Number of signatures fetched per GetSignaturesForAddress call",
				Buckets: []float64{1, 10, 25, 50, 100},
			},
			[]string{"endpoint"},
		),
		endpointDiscoveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_endpoint_discoveries_total",
				Help: "Total number of RPC endpoint discovery attempts",
			},
			[]string{"status"},
		),

		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contract_lookups_total",
				Help: "Total number of contract lookups by outcome (complete, partial, invalid, failed)",
			},
			[]string{"outcome"},
		),
		lookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contract_lookup_duration_seconds",
				Help:    "Duration of contract lookups in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		fieldFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contract_field_fetches_total",
				Help: "Total number of per-field fetches during lookups by field and status",
			},
			[]string{"field", "status"},
		),
		lookupTransactions: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contract_lookup_transactions",
				Help:    "Number of transactions returned per lookup",
				Buckets: []float64{0, 1, 10, 25, 50, 100},
			},
		),

		marketFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_fetches_total",
				Help: "Total number of market data fetches by status",
			},
			[]string{"status"},
		),
		marketFetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "market_fetch_duration_seconds",
				Help:    "Duration of market data fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 10, 30},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordRPCSignaturesPerCall records the number of signatures fetched.
func (m *Metrics) RecordRPCSignaturesPerCall(endpoint string, count float64) {
	m.solanaRPCSignaturesPerCall.WithLabelValues(endpoint).Observe(count)
}

// RecordEndpointDiscovery records an endpoint discovery attempt.
func (m *Metrics) RecordEndpointDiscovery(status string) {
	m.endpointDiscoveriesTotal.WithLabelValues(status).Inc()
}

// Lookup metric helpers

// RecordLookup records a finished contract lookup.
func (m *Metrics) RecordLookup(outcome string, transactions int, duration float64) {
	m.lookupsTotal.WithLabelValues(outcome).Inc()
	m.lookupDuration.WithLabelValues(outcome).Observe(duration)
	if outcome == "complete" || outcome == "partial" {
		m.lookupTransactions.Observe(float64(transactions))
	}
}

// RecordFieldFetch records the outcome of fetching one snapshot field.
func (m *Metrics) RecordFieldFetch(field, status string) {
	m.fieldFetchesTotal.WithLabelValues(field, status).Inc()
}

// Market metric helpers

// RecordMarketFetch records a market data fetch.
func (m *Metrics) RecordMarketFetch(status string, duration float64) {
	m.marketFetchesTotal.WithLabelValues(status).Inc()
	m.marketFetchDuration.Observe(duration)
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
