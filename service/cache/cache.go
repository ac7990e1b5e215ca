package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/metrics"
)

// DefaultTTL is how long a cached classification lives. Classifications
// for confirmed transactions are immutable, so the TTL exists only to
// bound memory.
const DefaultTTL = 7 * 24 * time.Hour

const keyPrefix = "classified:"

// ClassificationCache stores classified transactions in Redis, keyed by
// signature. All methods are safe to call on a nil receiver; a nil cache
// behaves as always-miss, so callers don't need to branch on whether
// caching is configured.
type ClassificationCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a ClassificationCache.
type Option func(*ClassificationCache)

// WithTTL overrides the default entry TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *ClassificationCache) {
		c.ttl = ttl
	}
}

// WithMetrics attaches a metrics recorder to the cache.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ClassificationCache) {
		c.metrics = m
	}
}

// New creates a ClassificationCache backed by the given Redis client.
func New(rdb *redis.Client, logger *slog.Logger, opts ...Option) *ClassificationCache {
	c := &ClassificationCache{
		rdb:    rdb,
		ttl:    DefaultTTL,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(signature string) string {
	return keyPrefix + signature
}

func (c *ClassificationCache) recordOp(operation, status string) {
	if c.metrics != nil {
		c.metrics.RecordCacheOperation(operation, status)
	}
}

// Get returns the cached classification for a signature, or nil on a miss.
func (c *ClassificationCache) Get(ctx context.Context, signature string) (*classify.ClassifiedTransaction, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}

	data, err := c.rdb.Get(ctx, cacheKey(signature)).Bytes()
	if err == redis.Nil {
		c.recordOp("get", "miss")
		return nil, nil
	}
	if err != nil {
		c.recordOp("get", "error")
		return nil, fmt.Errorf("cache get %s: %w", signature, err)
	}

	var ct classify.ClassifiedTransaction
	if err := json.Unmarshal(data, &ct); err != nil {
		// A corrupt entry is treated as a miss so the pipeline refetches.
		c.logger.Warn("discarding corrupt cache entry",
			"signature", signature,
			"error", err)
		c.recordOp("get", "error")
		return nil, nil
	}

	c.recordOp("get", "hit")
	return &ct, nil
}

// Set stores a classified transaction under its signature.
func (c *ClassificationCache) Set(ctx context.Context, ct *classify.ClassifiedTransaction) error {
	if c == nil || c.rdb == nil || ct == nil {
		return nil
	}

	data, err := json.Marshal(ct)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", ct.Tx.Signature, err)
	}

	if err := c.rdb.Set(ctx, cacheKey(ct.Tx.Signature), data, c.ttl).Err(); err != nil {
		c.recordOp("set", "error")
		return fmt.Errorf("cache set %s: %w", ct.Tx.Signature, err)
	}

	c.recordOp("set", "ok")
	return nil
}

// GetMany looks up a batch of signatures in one round trip. The returned
// map contains only the hits; missing or corrupt entries are absent.
func (c *ClassificationCache) GetMany(ctx context.Context, signatures []string) (map[string]*classify.ClassifiedTransaction, error) {
	if c == nil || c.rdb == nil || len(signatures) == 0 {
		return map[string]*classify.ClassifiedTransaction{}, nil
	}

	keys := make([]string, len(signatures))
	for i, sig := range signatures {
		keys[i] = cacheKey(sig)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.recordOp("mget", "error")
		return nil, fmt.Errorf("cache mget: %w", err)
	}

	found := make(map[string]*classify.ClassifiedTransaction, len(signatures))
	for i, v := range values {
		if v == nil {
			c.recordOp("mget", "miss")
			continue
		}
		s, ok := v.(string)
		if !ok {
			c.recordOp("mget", "error")
			continue
		}
		var ct classify.ClassifiedTransaction
		if err := json.Unmarshal([]byte(s), &ct); err != nil {
			c.logger.Warn("discarding corrupt cache entry",
				"signature", signatures[i],
				"error", err)
			c.recordOp("mget", "error")
			continue
		}
		found[signatures[i]] = &ct
		c.recordOp("mget", "hit")
	}

	return found, nil
}

// SetMany stores a batch of classified transactions in one pipeline.
func (c *ClassificationCache) SetMany(ctx context.Context, cts []*classify.ClassifiedTransaction) error {
	if c == nil || c.rdb == nil || len(cts) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for _, ct := range cts {
		if ct == nil {
			continue
		}
		data, err := json.Marshal(ct)
		if err != nil {
			return fmt.Errorf("cache marshal %s: %w", ct.Tx.Signature, err)
		}
		pipe.Set(ctx, cacheKey(ct.Tx.Signature), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.recordOp("mset", "error")
		return fmt.Errorf("cache mset: %w", err)
	}

	c.recordOp("mset", "ok")
	return nil
}
