package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solledger/solledger/service/cache"
	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/metrics"
	"github.com/solledger/solledger/service/nats"
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

// Fetcher is the subset of the Solana client the pipeline needs.
// *solana.Client satisfies it; tests substitute a mock.
type Fetcher interface {
	FetchWalletSignatures(ctx context.Context, wallet string, opts solana.SignatureOpts) ([]solana.SignatureInfo, error)
	FetchTransactionsBatch(ctx context.Context, signatures []string, opts solana.BatchOpts) []*solana.RawTransaction
	FetchWalletBalance(ctx context.Context, wallet string) (*solana.WalletBalance, error)
}

// Store is the subset of the database layer the pipeline needs.
type Store interface {
	UpsertClassified(ctx context.Context, walletAddress string, ct *classify.ClassifiedTransaction) error
}

// Service orchestrates the classification pipeline for a wallet: fetch
// signatures, resolve cached classifications, fetch and classify the rest,
// then persist, publish, and spam-filter the combined result.
//
// Classifications are built from the fee payer's perspective so cached and
// stored entries are shareable across requesting wallets; the wallet-relative
// view (direction) is derived at read time.
type Service struct {
	fetcher   Fetcher
	cache     *cache.ClassificationCache
	store     Store
	publisher nats.Publisher
	engine    *classify.Engine
	registry  *registry.TokenRegistry
	spamOpts  classify.SpamFilterOpts
	fetchOpts solana.BatchOpts
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache attaches a classification cache. A nil cache disables caching.
func WithCache(c *cache.ClassificationCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithStore attaches a persistence layer. Persistence is best-effort; a
// store failure is logged but does not fail the request.
func WithStore(store Store) Option {
	return func(s *Service) { s.store = store }
}

// WithPublisher attaches a NATS publisher for classification events.
// Publishing is best-effort like persistence.
func WithPublisher(p nats.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithSpamFilter sets the spam filter options applied to results.
func WithSpamFilter(opts classify.SpamFilterOpts) Option {
	return func(s *Service) { s.spamOpts = opts }
}

// WithFetchOpts sets the batch fetch options (concurrency, error callback).
func WithFetchOpts(opts solana.BatchOpts) Option {
	return func(s *Service) { s.fetchOpts = opts }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a pipeline Service. The fetcher, engine, and token
// registry are required; everything else is optional.
func NewService(fetcher Fetcher, engine *classify.Engine, reg *registry.TokenRegistry, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		fetcher:  fetcher,
		engine:   engine,
		registry: reg,
		logger:   logger,
		spamOpts: classify.SpamFilterOpts{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the output of one wallet classification run.
type Result struct {
	// Transactions is the classified, spam-filtered list, newest first.
	Transactions []classify.ClassifiedTransaction `json:"transactions"`
	// NextCursor is the oldest signature fetched for this page, regardless
	// of filtering or per-signature fetch failures; pass it as the Before
	// option of the next call to page further back. Empty only when the
	// signature listing itself returned nothing.
	NextCursor string `json:"next_cursor,omitempty"`
	// Total is the number of transactions classified before spam filtering.
	Total int `json:"total"`
}

// ClassifyWallet runs the full pipeline for one wallet page.
func (s *Service) ClassifyWallet(ctx context.Context, wallet string, opts solana.SignatureOpts) (*Result, error) {
	sigs, err := s.fetcher.FetchWalletSignatures(ctx, wallet, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch signatures for %s: %w", wallet, err)
	}
	if len(sigs) == 0 {
		return &Result{}, nil
	}

	sigStrings := make([]string, len(sigs))
	for i, sig := range sigs {
		sigStrings[i] = sig.Signature
	}

	cached, err := s.cache.GetMany(ctx, sigStrings)
	if err != nil {
		// A cache outage degrades to a full refetch.
		s.logger.Warn("classification cache unavailable",
			"wallet", wallet,
			"error", err)
		cached = map[string]*classify.ClassifiedTransaction{}
	}
	if s.metrics != nil && len(cached) > 0 {
		s.metrics.RecordTransactionsFetched(wallet, "cache", len(cached))
	}

	missing := make([]string, 0, len(sigStrings))
	for _, sig := range sigStrings {
		if _, ok := cached[sig]; !ok {
			missing = append(missing, sig)
		}
	}

	fresh := s.classifyMissing(ctx, wallet, missing)

	if err := s.cache.SetMany(ctx, fresh); err != nil {
		s.logger.Warn("failed to cache classifications",
			"wallet", wallet,
			"error", err)
	}
	s.persistAndPublish(ctx, wallet, fresh)

	bysig := make(map[string]*classify.ClassifiedTransaction, len(cached)+len(fresh))
	for sig, ct := range cached {
		bysig[sig] = ct
	}
	for _, ct := range fresh {
		bysig[ct.Tx.Signature] = ct
	}

	// Reassemble in signature order (newest first). Signatures whose fetch
	// failed or returned not-found are absent.
	all := make([]classify.ClassifiedTransaction, 0, len(bysig))
	for _, sig := range sigStrings {
		if ct, ok := bysig[sig]; ok {
			all = append(all, *ct)
		}
	}

	filtered := classify.FilterSpam(all, s.spamOpts)
	if s.metrics != nil && len(all) > len(filtered) {
		s.metrics.RecordTransactionsFiltered(wallet, len(all)-len(filtered))
	}

	s.logger.Info("classified wallet page",
		"wallet", wallet,
		"signatures", len(sigs),
		"cache_hits", len(cached),
		"classified", len(all),
		"after_spam_filter", len(filtered),
	)

	return &Result{
		Transactions: filtered,
		NextCursor:   sigStrings[len(sigStrings)-1],
		Total:        len(all),
	}, nil
}

// BalanceResult is a wallet balance snapshot with registry-resolved token
// metadata. Unknown mints carry fallback descriptors with zero decimals, so
// their UI value equals the raw amount.
type BalanceResult struct {
	Address string               `json:"address"`
	SOL     ledger.MoneyAmount   `json:"sol"`
	Tokens  []ledger.MoneyAmount `json:"tokens,omitempty"`
}

// WalletBalance fetches the wallet's current holdings and resolves token
// metadata through the registry.
func (s *Service) WalletBalance(ctx context.Context, wallet string) (*BalanceResult, error) {
	bal, err := s.fetcher.FetchWalletBalance(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("fetch balance for %s: %w", wallet, err)
	}

	out := &BalanceResult{
		Address: wallet,
		SOL:     ledger.NewMoneyAmount(s.registry.Resolve(registry.WrappedSolMint, registry.SolDecimals), int64(bal.Lamports)),
	}
	for _, tb := range bal.Tokens {
		token := s.registry.Resolve(tb.Mint, 0)
		out.Tokens = append(out.Tokens, ledger.NewMoneyAmount(token, int64(tb.Amount)))
	}
	return out, nil
}

// ClassifyTransaction classifies a single already-fetched transaction.
func (s *Service) ClassifyTransaction(tx *solana.RawTransaction) *classify.ClassifiedTransaction {
	start := time.Now()
	legs := ledger.TransactionToLegs(tx, ledger.FeePayerPerspective(), s.registry)
	classification := s.engine.Classify(legs, tx)
	if s.metrics != nil {
		s.metrics.RecordTransactionClassified(string(classification.PrimaryType), time.Since(start).Seconds())
	}
	return &classify.ClassifiedTransaction{
		Tx:             tx,
		Legs:           legs,
		Classification: classification,
	}
}

// classifyMissing fetches and classifies the signatures not served from
// cache. Per-signature fetch failures are logged and excluded.
func (s *Service) classifyMissing(ctx context.Context, wallet string, missing []string) []*classify.ClassifiedTransaction {
	if len(missing) == 0 {
		return nil
	}

	fetchOpts := s.fetchOpts
	if fetchOpts.OnFetchError == nil {
		fetchOpts.OnFetchError = func(signature string, err error) {
			s.logger.Error("failed to fetch transaction",
				"wallet", wallet,
				"signature", signature,
				"error", err)
		}
	}

	txs := s.fetcher.FetchTransactionsBatch(ctx, missing, fetchOpts)
	if s.metrics != nil {
		s.metrics.RecordTransactionsFetched(wallet, "rpc", len(txs))
	}

	out := make([]*classify.ClassifiedTransaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, s.ClassifyTransaction(tx))
	}
	return out
}

// persistAndPublish stores and publishes freshly classified transactions.
// Both are best-effort: the classification result is already complete, and
// a flaky database or broker should not fail the read path.
func (s *Service) persistAndPublish(ctx context.Context, wallet string, fresh []*classify.ClassifiedTransaction) {
	if len(fresh) == 0 {
		return
	}

	if s.store != nil {
		for _, ct := range fresh {
			start := time.Now()
			err := s.store.UpsertClassified(ctx, wallet, ct)
			if s.metrics != nil {
				s.metrics.RecordDBQuery("upsert", "classified_transactions", time.Since(start).Seconds(), err)
			}
			if err != nil {
				s.logger.Error("failed to persist classification",
					"wallet", wallet,
					"signature", ct.Tx.Signature,
					"error", err)
			}
		}
	}

	if s.publisher != nil {
		events := make([]*nats.ClassificationEvent, 0, len(fresh))
		for _, ct := range fresh {
			events = append(events, nats.FromClassified(wallet, ct))
		}
		if err := s.publisher.PublishClassificationBatch(ctx, events); err != nil {
			s.logger.Error("failed to publish classification batch",
				"wallet", wallet,
				"error", err)
		}
	}
}
