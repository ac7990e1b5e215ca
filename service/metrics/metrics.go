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
	solanaRPCRateLimitHits     *prometheus.CounterVec
	solanaRPCRetries           *prometheus.CounterVec
	solanaRPCSignaturesPerCall *prometheus.HistogramVec
	solanaRPCBatchSize         *prometheus.HistogramVec

	// Pipeline Metrics
	transactionsFetchedTotal    *prometheus.CounterVec
	transactionsClassifiedTotal *prometheus.CounterVec
	transactionsFilteredTotal   *prometheus.CounterVec
	classificationDuration      *prometheus.HistogramVec

	// Cache Metrics
	cacheOperationsTotal *prometheus.CounterVec

	// Database Metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

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
		// Solana RPC Metrics
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
		solanaRPCRateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_rate_limit_hits_total",
				Help: "Total number of Solana RPC rate limit hits (429 errors)",
			},
			[]string{"endpoint"},
		),
		solanaRPCRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_retries_total",
				Help: "Total number of Solana RPC retry attempts",
			},
			[]string{"method", "reason"},
		),
		solanaRPCSignaturesPerCall: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_signatures_per_call",
				Help:    "Number of signatures fetched per GetSignaturesForAddress call",
				Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
			},
			[]string{"endpoint"},
		),
		solanaRPCBatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_batch_size",
				Help:    "Number of sub-requests per batched JSON-RPC call",
				Buckets: []float64{1, 5, 10, 25, 50, 100},
			},
			[]string{"endpoint"},
		),

		// Pipeline Metrics
		transactionsFetchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_fetched_total",
				Help: "Total number of transactions fetched from Solana",
			},
			[]string{"wallet_address", "source"},
		),
		transactionsClassifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_classified_total",
				Help: "Total number of transactions classified, by primary type",
			},
			[]string{"primary_type"},
		),
		transactionsFilteredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_filtered_total",
				Help: "Total number of transactions removed by the spam filter",
			},
			[]string{"wallet_address"},
		),
		classificationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classification_duration_seconds",
				Help:    "Duration of the ledger build plus classification per transaction",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"primary_type"},
		),

		// Cache Metrics
		cacheOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_operations_total",
				Help: "Total number of classification cache operations",
			},
			[]string{"operation", "status"},
		),

		// Database Metrics
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
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

		// NATS Metrics
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

// RecordRateLimitHit records a 429 rate limit error.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.solanaRPCRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordRPCRetry records a retry attempt.
func (m *Metrics) RecordRPCRetry(method, reason string) {
	m.solanaRPCRetries.WithLabelValues(method, reason).Inc()
}

// RecordRPCSignaturesPerCall records the number of signatures fetched.
func (m *Metrics) RecordRPCSignaturesPerCall(endpoint string, count float64) {
	m.solanaRPCSignaturesPerCall.WithLabelValues(endpoint).Observe(count)
}

// RecordRPCBatchSize records the size of a batched JSON-RPC call.
func (m *Metrics) RecordRPCBatchSize(endpoint string, size float64) {
	m.solanaRPCBatchSize.WithLabelValues(endpoint).Observe(size)
}

// Pipeline metric helpers

// RecordTransactionsFetched records fetched transactions by source
// ("rpc", "batch_rpc", "cache").
func (m *Metrics) RecordTransactionsFetched(walletAddress, source string, count int) {
	m.transactionsFetchedTotal.WithLabelValues(walletAddress, source).Add(float64(count))
}

// RecordTransactionClassified records one classification by primary type.
func (m *Metrics) RecordTransactionClassified(primaryType string, duration float64) {
	m.transactionsClassifiedTotal.WithLabelValues(primaryType).Inc()
	m.classificationDuration.WithLabelValues(primaryType).Observe(duration)
}

// RecordTransactionsFiltered records transactions dropped by the spam filter.
func (m *Metrics) RecordTransactionsFiltered(walletAddress string, count int) {
	m.transactionsFilteredTotal.WithLabelValues(walletAddress).Add(float64(count))
}

// Cache metric helpers

// RecordCacheOperation records a cache operation outcome
// (operation: "get"/"set"/"mget"/"mset"; status: "hit"/"miss"/"ok"/"error").
func (m *Metrics) RecordCacheOperation(operation, status string) {
	m.cacheOperationsTotal.WithLabelValues(operation, status).Inc()
}

// Database metric helpers

// RecordDBQuery records a database query with duration and outcome.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := httpStatusLabel(statusCode)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// httpStatusLabel buckets status codes into class labels (2xx, 4xx, ...).
func httpStatusLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
