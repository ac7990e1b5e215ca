package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/solledger/solledger/service/cache"
	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/config"
	"github.com/solledger/solledger/service/db"
	"github.com/solledger/solledger/service/metrics"
	"github.com/solledger/solledger/service/nats"
	"github.com/solledger/solledger/service/pipeline"
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/server"
	"github.com/solledger/solledger/service/solana"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics collector, registered on the default Prometheus registry
	m := metrics.NewMetrics(nil)

	// Database connection pool
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	store := db.NewStore(dbPool)

	// Classification cache (optional - requires REDIS_ADDR)
	var classCache *cache.ClassificationCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to ping redis", "error", err)
			os.Exit(1)
		}
		classCache = cache.New(rdb, logger,
			cache.WithTTL(cfg.CacheTTL),
			cache.WithMetrics(m),
		)
		logger.Info("classification cache enabled", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, classification cache disabled")
	}

	// NATS publisher (optional - a broken broker should not block startup)
	var publisher nats.Publisher
	if cfg.NATSURL != "" {
		p, err := nats.NewPublisher(cfg.NATSURL, logger, m)
		if err != nil {
			logger.Warn("NATS unavailable, classification events disabled", "error", err)
		} else {
			publisher = p
			defer p.Close()
		}
	}

	// Solana fetch layer
	detector := registry.DefaultDetector()
	rpcClient := solana.NewRPCClient(cfg.SolanaRPCURL)
	solanaClient := solana.NewClient(rpcClient, detector, logger,
		solana.WithRetryPolicy(solana.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Retryable:   solana.IsRetryable,
		}),
		solana.WithMetrics(m, cfg.SolanaRPCURL),
	)
	logger.Info("initialized solana RPC client", "url", cfg.SolanaRPCURL)

	// Transaction fetch mode: per-signature concurrent fetches, or batched
	// JSON-RPC envelopes paced by BATCH_SIZE and TARGET_RPS.
	var fetcher pipeline.Fetcher = solanaClient
	if cfg.FetchMode == config.FetchModeBatch {
		batchClient := solana.NewBatchClient(cfg.SolanaRPCURL, detector, cfg.BatchSize, float64(cfg.TargetRPS), logger)
		fetcher = solana.NewBatchFetchClient(solanaClient, batchClient)
		logger.Info("batched transaction fetching enabled",
			"batch_size", cfg.BatchSize,
			"target_rps", cfg.TargetRPS,
		)
	}

	// Classification pipeline
	engine := classify.DefaultEngine(detector)
	svc := pipeline.NewService(fetcher, engine, registry.DefaultTokenRegistry(), logger,
		pipeline.WithCache(classCache),
		pipeline.WithStore(store),
		pipeline.WithPublisher(publisher),
		pipeline.WithMetrics(m),
		pipeline.WithFetchOpts(solana.BatchOpts{Concurrency: cfg.FetchConcurrency}),
		pipeline.WithSpamFilter(classify.SpamFilterOpts{
			MinLamports:      cfg.SpamMinLamports,
			MinTokenValueUSD: cfg.SpamMinTokenValueUSD,
			MinConfidence:    cfg.SpamMinConfidence,
			AllowFailed:      cfg.SpamAllowFailed,
		}),
	)

	httpServer := server.New(cfg.ServerAddr, svc, store, m, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
