package solana

import (
	"context"
	"sync"
)

// DefaultBatchConcurrency bounds concurrent transaction fetches.
const DefaultBatchConcurrency = 10

// BatchOpts configures a bounded-concurrency batch fetch.
type BatchOpts struct {
	// Concurrency is the maximum number of in-flight fetches (default 10).
	Concurrency int
	// OnFetchError is invoked exactly once per signature whose fetch
	// returned an error. Not-found transactions are excluded silently
	// without invoking it. May be nil.
	OnFetchError func(signature string, err error)
}

// FetchTransactionsBatch fetches transaction bodies for the given signatures
// with bounded concurrency. Each fetch is independent: a per-signature
// failure is reported via OnFetchError and excluded from the result without
// aborting sibling fetches, and a not-found transaction is excluded silently.
// The result preserves the input signature order and has length
// len(signatures) - failures - not-found.
func (c *Client) FetchTransactionsBatch(ctx context.Context, signatures []string, opts BatchOpts) []*RawTransaction {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	if c.metrics != nil && len(signatures) > 0 {
		c.metrics.RecordRPCBatchSize(c.endpoint, float64(len(signatures)))
	}

	// Each fetch owns its own result slot, so no locking is needed around
	// the results slice itself.
	results := make([]*RawTransaction, len(signatures))

	var (
		wg         sync.WaitGroup
		callbackMu sync.Mutex
	)
	sem := make(chan struct{}, concurrency)

	for i, signature := range signatures {
		wg.Add(1)
		go func(i int, signature string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			tx, err := c.FetchTransaction(ctx, signature)
			if err != nil {
				c.logger.WarnContext(ctx, "failed to fetch transaction in batch",
					"signature", signature,
					"error", err,
				)
				if opts.OnFetchError != nil {
					callbackMu.Lock()
					opts.OnFetchError(signature, err)
					callbackMu.Unlock()
				}
				return
			}
			// tx is nil when the transaction was genuinely not found.
			results[i] = tx
		}(i, signature)
	}
	wg.Wait()

	out := make([]*RawTransaction, 0, len(signatures))
	for _, tx := range results {
		if tx != nil {
			out = append(out, tx)
		}
	}
	return out
}
