package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/ledgerlens/service/config"
	"github.com/brojonat/ledgerlens/service/metrics"
	"github.com/brojonat/ledgerlens/service/nats"
	"github.com/brojonat/ledgerlens/service/view"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server for the contract explorer.
type Server struct {
	addr         string
	lookups      *lookupService
	market       MarketFetcher
	renderer     *TemplateRenderer
	pageSize     int
	marketSymbol string
	version      string
	metrics      *metrics.Metrics
	logger       *slog.Logger
	server       *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The market fetcher is optional - if nil, the market endpoint reports unavailable.
// The publisher is optional - if nil, no lookup events are published.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(cfg *config.Config, contracts ContractFetcher, market MarketFetcher, publisher nats.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = view.DefaultPageSize
	}
	return &Server{
		addr: cfg.ServerAddr,
		lookups: &lookupService{
			contracts: contracts,
			publisher: publisher,
			logger:    logger,
		},
		market:       market,
		pageSize:     pageSize,
		marketSymbol: cfg.MarketSymbol,
		version:      "dev",
		metrics:      m,
		logger:       logger,
	}
}

// WithTemplates adds template rendering support to the server using embedded files
func (s *Server) WithTemplates() error {
	renderer, err := NewTemplateRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}
	s.renderer = renderer
	s.logger.Info("HTML templates loaded from embedded files")
	return nil
}

// WithVersion sets the build version reported by /version.
func (s *Server) WithVersion(version string) *Server {
	if version != "" {
		s.version = version
	}
	return s
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	instrument := func(name string, h http.Handler) http.Handler {
		return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}

	// Contract routes
	mux.Handle("GET /api/contract", instrument("/api/contract", handleContract(s.lookups, s.logger)))
	mux.Handle("GET /api/contract/chart", instrument("/api/contract/chart", handleContractChart(s.lookups, s.logger)))

	// Market data
	mux.Handle("GET /api/market", instrument("/api/market", handleMarket(s.market, s.marketSymbol, s.logger)))

	// HTML pages (if template renderer is configured)
	if s.renderer != nil {
		mux.Handle("GET /{$}", instrument("/", handleExplorerPage(s.renderer, s.lookups, s.pageSize, s.marketSymbol)))
		mux.HandleFunc("GET /favicon.ico", handleFavicon())
		mux.HandleFunc("GET /favicon.svg", handleFavicon())
		s.logger.Info("HTML page endpoints enabled")
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": s.version}, http.StatusOK)
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // lookups walk up to TRANSACTION_LIMIT transactions
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
