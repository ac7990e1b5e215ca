package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solledger/solledger/service/metrics"
)

// Server represents the HTTP server for the classification service.
type Server struct {
	addr       string
	classifier WalletClassifier
	store      TransactionStore
	metrics    *metrics.Metrics
	logger     *slog.Logger
	server     *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The classifier runs the live classification pipeline.
// The store is optional - if nil, the stored-history endpoints won't be available.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, classifier WalletClassifier, store TransactionStore, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:       addr,
		classifier: classifier,
		store:      store,
		metrics:    m,
		logger:     logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Classification routes
	mux.Handle("GET /api/v1/wallets/{address}/transactions", handleClassifyWallet(s.classifier, s.logger))
	mux.Handle("GET /api/v1/wallets/{address}/balance", handleWalletBalance(s.classifier, s.logger))

	// Stored history routes (if a store is configured)
	if s.store != nil {
		mux.Handle("GET /api/v1/wallets/{address}/history", handleListStored(s.store, s.logger))
		mux.Handle("GET /api/v1/wallets/{address}/summary", handleWalletSummary(s.store, s.logger))
		mux.Handle("GET /api/v1/transactions/{signature}", handleGetTransaction(s.store, s.logger))
	} else {
		s.logger.Warn("store not configured, stored history endpoints disabled")
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS middleware
	handler := corsMiddleware(mux)
	if s.metrics != nil {
		handler = metrics.HTTPMetricsMiddleware(s.metrics, "api")(handler)
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // classification may hit the RPC node
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
