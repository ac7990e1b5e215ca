package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// Store provides database operations for classified transactions.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store with the given database connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ClassifiedRow is the persisted form of a classified transaction. The
// legs, classification, and raw transaction are stored as JSONB so the
// full pipeline output survives a round trip without schema churn.
type ClassifiedRow struct {
	Signature     string
	WalletAddress string
	Slot          int64
	BlockTime     time.Time
	PrimaryType   string
	Confidence    float64
	Failed        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Classified *classify.ClassifiedTransaction
}

// ListParams contains cursor pagination parameters for ListByWallet.
// BeforeSlot of 0 means start from the newest transaction.
type ListParams struct {
	WalletAddress string
	Limit         int32
	BeforeSlot    int64
}

// UpsertClassified inserts or replaces a classified transaction. Replays
// of already-stored signatures are idempotent.
func (s *Store) UpsertClassified(ctx context.Context, walletAddress string, ct *classify.ClassifiedTransaction) error {
	if ct == nil || ct.Tx == nil {
		return errors.New("nil classified transaction")
	}

	legsJSON, err := json.Marshal(ct.Legs)
	if err != nil {
		return fmt.Errorf("marshal legs for %s: %w", ct.Tx.Signature, err)
	}
	classJSON, err := json.Marshal(ct.Classification)
	if err != nil {
		return fmt.Errorf("marshal classification for %s: %w", ct.Tx.Signature, err)
	}
	txJSON, err := json.Marshal(ct.Tx)
	if err != nil {
		return fmt.Errorf("marshal transaction %s: %w", ct.Tx.Signature, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO classified_transactions (
			signature, wallet_address, slot, block_time,
			primary_type, confidence, failed,
			legs, classification, raw_tx, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (signature) DO UPDATE SET
			wallet_address = EXCLUDED.wallet_address,
			primary_type   = EXCLUDED.primary_type,
			confidence     = EXCLUDED.confidence,
			legs           = EXCLUDED.legs,
			classification = EXCLUDED.classification,
			raw_tx         = EXCLUDED.raw_tx,
			updated_at     = now()`,
		ct.Tx.Signature,
		walletAddress,
		int64(ct.Tx.Slot),
		ct.Tx.BlockTime,
		string(ct.Classification.PrimaryType),
		ct.Classification.Confidence,
		ct.Tx.Failed(),
		legsJSON,
		classJSON,
		txJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert classified %s: %w", ct.Tx.Signature, err)
	}
	return nil
}

// GetClassified retrieves one classified transaction by signature.
// Returns (nil, nil) when the signature is not stored.
func (s *Store) GetClassified(ctx context.Context, signature string) (*ClassifiedRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT signature, wallet_address, slot, block_time,
		       primary_type, confidence, failed,
		       legs, classification, raw_tx,
		       created_at, updated_at
		FROM classified_transactions
		WHERE signature = $1`,
		signature,
	)

	cr, err := scanClassifiedRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get classified %s: %w", signature, err)
	}
	return cr, nil
}

// ListByWallet retrieves classified transactions for a wallet, newest
// first, using slot-based cursor pagination.
func (s *Store) ListByWallet(ctx context.Context, params ListParams) ([]*ClassifiedRow, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT signature, wallet_address, slot, block_time,
		       primary_type, confidence, failed,
		       legs, classification, raw_tx,
		       created_at, updated_at
		FROM classified_transactions
		WHERE wallet_address = $1`
	args := []any{params.WalletAddress}

	if params.BeforeSlot > 0 {
		query += ` AND slot < $2 ORDER BY slot DESC LIMIT $3`
		args = append(args, params.BeforeSlot, limit)
	} else {
		query += ` ORDER BY slot DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by wallet %s: %w", params.WalletAddress, err)
	}
	defer rows.Close()

	var out []*ClassifiedRow
	for rows.Next() {
		cr, err := scanClassifiedRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan classified row: %w", err)
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list by wallet %s: %w", params.WalletAddress, err)
	}
	return out, nil
}

// CountByWallet counts stored classified transactions for a wallet.
func (s *Store) CountByWallet(ctx context.Context, walletAddress string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM classified_transactions WHERE wallet_address = $1`,
		walletAddress,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by wallet %s: %w", walletAddress, err)
	}
	return count, nil
}

// CountByType returns stored transaction counts grouped by primary type.
func (s *Store) CountByType(ctx context.Context, walletAddress string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT primary_type, COUNT(*)
		FROM classified_transactions
		WHERE wallet_address = $1
		GROUP BY primary_type`,
		walletAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("count by type %s: %w", walletAddress, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var pt string
		var n int64
		if err := rows.Scan(&pt, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		counts[pt] = n
	}
	return counts, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanClassifiedRow(row rowScanner) (*ClassifiedRow, error) {
	var cr ClassifiedRow
	var legsJSON, classJSON, txJSON []byte

	err := row.Scan(
		&cr.Signature,
		&cr.WalletAddress,
		&cr.Slot,
		&cr.BlockTime,
		&cr.PrimaryType,
		&cr.Confidence,
		&cr.Failed,
		&legsJSON,
		&classJSON,
		&txJSON,
		&cr.CreatedAt,
		&cr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var tx solana.RawTransaction
	if err := json.Unmarshal(txJSON, &tx); err != nil {
		return nil, fmt.Errorf("unmarshal raw_tx: %w", err)
	}
	var legs []ledger.TxLeg
	if err := json.Unmarshal(legsJSON, &legs); err != nil {
		return nil, fmt.Errorf("unmarshal legs: %w", err)
	}
	var classification classify.TransactionClassification
	if err := json.Unmarshal(classJSON, &classification); err != nil {
		return nil, fmt.Errorf("unmarshal classification: %w", err)
	}

	cr.Classified = &classify.ClassifiedTransaction{
		Tx:             &tx,
		Legs:           legs,
		Classification: classification,
	}
	return &cr, nil
}
