package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solledger/solledger/service/metrics"
	"github.com/solledger/solledger/service/registry"
)

// maxSupportedTransactionVersion requests versioned (v0) transactions so
// lookup-table heavy transactions are not rejected by the node.
var maxSupportedTransactionVersion = uint64(0)

// Client provides the transaction fetch layer: signature listing, single
// transaction fetches with retry, and bounded-concurrency batch fetches.
type Client struct {
	rpc        RPCClient
	detector   *registry.Detector
	retry      RetryPolicy
	commitment rpc.CommitmentType
	metrics    *metrics.Metrics
	endpoint   string // RPC endpoint identifier for metrics (e.g., "mainnet", rpc host)
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryPolicy overrides the default retry policy for transaction fetches.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = policy }
}

// WithCommitment sets the commitment level requested for reads.
func WithCommitment(commitment rpc.CommitmentType) ClientOption {
	return func(c *Client) { c.commitment = commitment }
}

// WithMetrics attaches a metrics collector. If nil, no metrics are recorded.
func WithMetrics(m *metrics.Metrics, endpoint string) ClientOption {
	return func(c *Client) {
		c.metrics = m
		c.endpoint = endpoint
	}
}

// NewClient creates a new fetch-layer client. The detector resolves protocols
// during mapping and may be nil in tests.
func NewClient(rpcClient RPCClient, detector *registry.Detector, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		rpc:        rpcClient,
		detector:   detector,
		retry:      DefaultRetryPolicy(),
		commitment: rpc.CommitmentConfirmed,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignatureOpts are pass-through pagination parameters for signature listing.
type SignatureOpts struct {
	Limit  int
	Before string // exclusive upper bound, used as the pagination cursor
	Until  string // exclusive lower bound
}

// FetchWalletSignatures returns signature stubs for a wallet, newest first.
// Pagination parameters pass straight through to the node. The call is an
// idempotent read and is not retried beyond the underlying call.
func (c *Client) FetchWalletSignatures(ctx context.Context, wallet string, opts SignatureOpts) ([]SignatureInfo, error) {
	address, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address %q: %w", wallet, err)
	}

	rpcOpts := &rpc.GetSignaturesForAddressOpts{
		Commitment: c.commitment,
	}
	if opts.Limit > 0 {
		rpcOpts.Limit = &opts.Limit
	}
	if opts.Before != "" {
		sig, err := solana.SignatureFromBase58(opts.Before)
		if err != nil {
			return nil, fmt.Errorf("invalid before cursor %q: %w", opts.Before, err)
		}
		rpcOpts.Before = sig
	}
	if opts.Until != "" {
		sig, err := solana.SignatureFromBase58(opts.Until)
		if err != nil {
			return nil, fmt.Errorf("invalid until cursor %q: %w", opts.Until, err)
		}
		rpcOpts.Until = sig
	}

	start := time.Now()
	signatures, err := c.rpc.GetSignaturesForAddress(ctx, address, rpcOpts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetSignaturesForAddress", status, c.endpoint, duration)
		if err == nil {
			c.metrics.RecordRPCSignaturesPerCall(c.endpoint, float64(len(signatures)))
		}
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get signatures",
			"wallet", wallet,
			"error", err,
		)
		return nil, err
	}

	c.logger.DebugContext(ctx, "fetched transaction signatures",
		"wallet", wallet,
		"count", len(signatures),
	)

	out := make([]SignatureInfo, 0, len(signatures))
	for _, sig := range signatures {
		out = append(out, signatureToInfo(sig))
	}
	return out, nil
}

// FetchTransaction fetches and maps a single transaction by signature.
// Transient RPC errors are retried under the client's retry policy; a
// genuinely missing transaction returns (nil, nil) rather than an error.
func (c *Client) FetchTransaction(ctx context.Context, signature string) (*RawTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	result, err := Retry(ctx, c.retry, func(ctx context.Context) (*rpc.GetTransactionResult, error) {
		txnOpts := &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     c.commitment,
			MaxSupportedTransactionVersion: &maxSupportedTransactionVersion,
		}
		start := time.Now()
		result, err := c.rpc.GetTransaction(ctx, sig, txnOpts)
		duration := time.Since(start).Seconds()

		status := "success"
		if err != nil && !errors.Is(err, rpc.ErrNotFound) {
			status = "error"
		}
		if c.metrics != nil {
			c.metrics.RecordRPCCall("GetTransaction", status, c.endpoint, duration)
			if err != nil && IsRetryable(err) {
				c.metrics.RecordRPCRetry("GetTransaction", "transient")
				if isRateLimited(err) {
					c.metrics.RecordRateLimitHit(c.endpoint)
				}
			}
		}
		return result, err
	})
	if err != nil {
		// A missing transaction is not a failure; callers distinguish
		// "not found" (nil) from a thrown error.
		if errors.Is(err, rpc.ErrNotFound) {
			c.logger.DebugContext(ctx, "transaction not found", "signature", signature)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch transaction %s: %w", signature, err)
	}
	if result == nil {
		return nil, nil
	}

	return rawTransactionFromResult(signature, result, c.detector)
}
