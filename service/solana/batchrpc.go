package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solledger/solledger/service/registry"
)

// BatchClient fetches transactions via the JSON-RPC batch envelope: N
// getTransaction sub-requests grouped into a single HTTP call. Batches are
// issued sequentially with an inter-batch delay derived from a target
// requests-per-second budget, which keeps the fetcher under upstream rate
// limits without any per-request limiter.
type BatchClient struct {
	httpClient *http.Client
	endpoint   string
	detector   *registry.Detector
	batchSize  int
	targetRPS  float64
	retry      RetryPolicy
	logger     *slog.Logger
}

// DefaultBatchSize is the number of sub-requests grouped per HTTP call.
const DefaultBatchSize = 10

// NewBatchClient creates a batched JSON-RPC fetcher against the given
// endpoint. targetRPS is the sub-request budget per second; zero disables
// inter-batch delays.
func NewBatchClient(endpoint string, detector *registry.Detector, batchSize int, targetRPS float64, logger *slog.Logger) *BatchClient {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		detector:   detector,
		batchSize:  batchSize,
		targetRPS:  targetRPS,
		retry:      DefaultRetryPolicy(),
		logger:     logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// FetchTransactions fetches all signatures using sequential batched HTTP
// calls. Per-signature semantics match FetchTransactionsBatch: errors are
// reported via onErr and excluded, nulls are excluded silently, and the
// output preserves input order.
func (b *BatchClient) FetchTransactions(ctx context.Context, signatures []string, onErr func(signature string, err error)) []*RawTransaction {
	results := make([]*RawTransaction, 0, len(signatures))
	delay := interBatchDelay(b.batchSize, b.targetRPS)

	for start := 0; start < len(signatures); start += b.batchSize {
		end := start + b.batchSize
		if end > len(signatures) {
			end = len(signatures)
		}
		batch := signatures[start:end]

		if start > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return results
			}
		}

		batchResults, err := b.fetchBatch(ctx, batch)
		if err != nil {
			// The whole HTTP call failed; every signature in the batch
			// is reported individually so callers see a uniform shape.
			b.logger.WarnContext(ctx, "batch rpc call failed",
				"batch_size", len(batch),
				"error", err,
			)
			if onErr != nil {
				for _, sig := range batch {
					onErr(sig, err)
				}
			}
			continue
		}

		for _, sig := range batch {
			item, ok := batchResults[sig]
			if !ok {
				// Null result: transaction genuinely not found.
				continue
			}
			if item.err != nil {
				if onErr != nil {
					onErr(sig, item.err)
				}
				continue
			}
			results = append(results, item.tx)
		}
	}
	return results
}

// BatchFetchClient routes transaction fetches through a BatchClient while
// keeping signature listing and balance reads on the standard client. It
// satisfies the pipeline's Fetcher, so the fetch mode is a drop-in swap at
// wiring time.
type BatchFetchClient struct {
	*Client
	batch *BatchClient
}

// NewBatchFetchClient combines a standard client with a batched fetcher.
func NewBatchFetchClient(client *Client, batch *BatchClient) *BatchFetchClient {
	return &BatchFetchClient{Client: client, batch: batch}
}

// FetchTransactionsBatch fetches via JSON-RPC batch envelopes. BatchOpts
// concurrency does not apply here; pacing comes from the BatchClient's
// batch size and rate budget.
func (c *BatchFetchClient) FetchTransactionsBatch(ctx context.Context, signatures []string, opts BatchOpts) []*RawTransaction {
	return c.batch.FetchTransactions(ctx, signatures, opts.OnFetchError)
}

type batchItem struct {
	tx  *RawTransaction
	err error
}

// fetchBatch issues one JSON-RPC batch envelope and demultiplexes the
// responses by numeric id; the HTTP response order is not guaranteed to
// match the request order. The retry policy applies to the HTTP call as a
// whole, not to individual sub-requests.
func (b *BatchClient) fetchBatch(ctx context.Context, signatures []string) (map[string]batchItem, error) {
	requests := make([]rpcRequest, 0, len(signatures))
	idToSig := make(map[int]string, len(signatures))
	for i, sig := range signatures {
		id := i + 1
		requests = append(requests, rpcRequest{
			JSONRPC: "2.0",
			ID:      id,
			Method:  "getTransaction",
			Params: []any{
				sig,
				map[string]any{
					"encoding":                       "base64",
					"commitment":                     "confirmed",
					"maxSupportedTransactionVersion": 0,
				},
			},
		})
		idToSig[id] = sig
	}

	body, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("encode batch request: %w", err)
	}

	responses, err := Retry(ctx, b.retry, func(ctx context.Context) ([]rpcResponse, error) {
		return b.post(ctx, body)
	})
	if err != nil {
		return nil, err
	}

	return demuxBatchResponses(responses, idToSig, b.detector), nil
}

// post performs one batch HTTP round trip.
func (b *BatchClient) post(ctx context.Context, body []byte) ([]rpcResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch rpc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("batch rpc status %d: %s", resp.StatusCode, string(snippet))
	}

	var responses []rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&responses); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	return responses, nil
}

// demuxBatchResponses restores within-batch ordering via response ids.
// Signatures whose result is null are omitted from the map entirely, which
// is how "not found" stays distinct from a sub-request error.
func demuxBatchResponses(responses []rpcResponse, idToSig map[int]string, detector *registry.Detector) map[string]batchItem {
	out := make(map[string]batchItem, len(responses))
	for _, resp := range responses {
		sig, ok := idToSig[resp.ID]
		if !ok {
			continue
		}
		if resp.Error != nil {
			out[sig] = batchItem{err: resp.Error}
			continue
		}
		if len(resp.Result) == 0 || string(resp.Result) == "null" {
			continue
		}

		var result rpc.GetTransactionResult
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			out[sig] = batchItem{err: fmt.Errorf("decode transaction result: %w", err)}
			continue
		}
		tx, err := rawTransactionFromResult(sig, &result, detector)
		if err != nil {
			out[sig] = batchItem{err: err}
			continue
		}
		out[sig] = batchItem{tx: tx}
	}
	return out
}

// interBatchDelay computes the pause between batches needed to stay under
// targetRPS sub-requests per second. Zero targetRPS disables the delay.
func interBatchDelay(batchSize int, targetRPS float64) time.Duration {
	if targetRPS <= 0 || batchSize <= 0 {
		return 0
	}
	return time.Duration(float64(batchSize) / targetRPS * float64(time.Second))
}
