package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/solledger/solledger/service/db"
	"github.com/solledger/solledger/service/pipeline"
	"github.com/solledger/solledger/service/solana"
)

const (
	maxAddressLength = 100 // Solana addresses are 44 chars, give buffer
	defaultPageLimit = 50
	maxPageLimit     = 1000
)

var (
	// Valid Solana address characters: base58 (no 0, O, I, l)
	validAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// WalletClassifier runs the live classification pipeline for a wallet.
// *pipeline.Service satisfies it; tests substitute a mock.
type WalletClassifier interface {
	ClassifyWallet(ctx context.Context, wallet string, opts solana.SignatureOpts) (*pipeline.Result, error)
	WalletBalance(ctx context.Context, wallet string) (*pipeline.BalanceResult, error)
}

// TransactionStore serves previously classified transactions.
// *db.Store satisfies it.
type TransactionStore interface {
	GetClassified(ctx context.Context, signature string) (*db.ClassifiedRow, error)
	ListByWallet(ctx context.Context, params db.ListParams) ([]*db.ClassifiedRow, error)
	CountByWallet(ctx context.Context, walletAddress string) (int64, error)
	CountByType(ctx context.Context, walletAddress string) (map[string]int64, error)
}

// handleClassifyWallet returns a handler that fetches and classifies a
// wallet's recent transactions.
// GET /api/v1/wallets/{address}/transactions?limit=N&before=SIGNATURE
func handleClassifyWallet(classifier WalletClassifier, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		query := r.URL.Query()

		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit, err := parseLimit(query.Get("limit"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		before := query.Get("before")
		if before != "" {
			if err := validateSignature(before); err != nil {
				writeError(w, fmt.Sprintf("invalid before cursor: %v", err), http.StatusBadRequest)
				return
			}
		}

		result, err := classifier.ClassifyWallet(r.Context(), address, solana.SignatureOpts{
			Limit:  limit,
			Before: before,
		})
		if err != nil {
			logger.Error("failed to classify wallet", "address", address, "error", err)
			writeError(w, "failed to classify wallet transactions", http.StatusBadGateway)
			return
		}

		logger.Debug("wallet classified",
			"address", address,
			"count", len(result.Transactions),
			"total", result.Total,
		)

		writeJSON(w, result, http.StatusOK)
	})
}

// handleWalletBalance returns a handler serving a wallet's current SOL and
// SPL token holdings.
// GET /api/v1/wallets/{address}/balance
func handleWalletBalance(classifier WalletClassifier, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")

		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		balance, err := classifier.WalletBalance(r.Context(), address)
		if err != nil {
			logger.Error("failed to fetch wallet balance", "address", address, "error", err)
			writeError(w, "failed to fetch wallet balance", http.StatusBadGateway)
			return
		}

		writeJSON(w, balance, http.StatusOK)
	})
}

// handleListStored returns a handler that lists stored classified
// transactions for a wallet.
// GET /api/v1/wallets/{address}/history?limit=N&before_slot=N
func handleListStored(store TransactionStore, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		query := r.URL.Query()

		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit, err := parseLimit(query.Get("limit"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		var beforeSlot int64
		if raw := query.Get("before_slot"); raw != "" {
			beforeSlot, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || beforeSlot < 0 {
				writeError(w, "invalid before_slot: must be a non-negative integer", http.StatusBadRequest)
				return
			}
		}

		rows, err := store.ListByWallet(r.Context(), db.ListParams{
			WalletAddress: address,
			Limit:         int32(limit),
			BeforeSlot:    beforeSlot,
		})
		if err != nil {
			logger.Error("failed to list stored transactions", "address", address, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		transactions := make([]storedTransactionResponse, len(rows))
		for i, row := range rows {
			transactions[i] = storedRowToResponse(row)
		}

		resp := map[string]any{
			"address":      address,
			"transactions": transactions,
		}
		if len(rows) > 0 {
			resp["next_before_slot"] = rows[len(rows)-1].Slot
		}

		writeJSON(w, resp, http.StatusOK)
	})
}

// handleWalletSummary returns a handler with per-type counts for a wallet.
// GET /api/v1/wallets/{address}/summary
func handleWalletSummary(store TransactionStore, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")

		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		total, err := store.CountByWallet(r.Context(), address)
		if err != nil {
			logger.Error("failed to count transactions", "address", address, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		byType, err := store.CountByType(r.Context(), address)
		if err != nil {
			logger.Error("failed to count by type", "address", address, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]any{
			"address": address,
			"total":   total,
			"by_type": byType,
		}, http.StatusOK)
	})
}

// handleGetTransaction returns a handler serving one stored classification.
// GET /api/v1/transactions/{signature}
func handleGetTransaction(store TransactionStore, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.PathValue("signature")

		if err := validateSignature(signature); err != nil {
			logger.Debug("invalid signature", "signature", signature, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		row, err := store.GetClassified(r.Context(), signature)
		if err != nil {
			logger.Error("failed to get transaction", "signature", signature, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if row == nil {
			writeError(w, "transaction not found", http.StatusNotFound)
			return
		}

		writeJSON(w, storedRowToResponse(row), http.StatusOK)
	})
}

// storedTransactionResponse is the JSON shape of one stored classification.
type storedTransactionResponse struct {
	Signature   string `json:"signature"`
	Wallet      string `json:"wallet_address"`
	Slot        int64  `json:"slot"`
	BlockTime   string `json:"block_time"`
	PrimaryType string `json:"primary_type"`
	Confidence  float64 `json:"confidence"`
	Failed      bool   `json:"failed"`

	Classified any `json:"classified"`
}

func storedRowToResponse(row *db.ClassifiedRow) storedTransactionResponse {
	return storedTransactionResponse{
		Signature:   row.Signature,
		Wallet:      row.WalletAddress,
		Slot:        row.Slot,
		BlockTime:   row.BlockTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
		PrimaryType: row.PrimaryType,
		Confidence:  row.Confidence,
		Failed:      row.Failed,
		Classified:  row.Classified,
	}
}

// parseLimit parses and bounds the limit query parameter.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultPageLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errorf("invalid limit: must be a positive integer")
	}
	if limit > maxPageLimit {
		return 0, errorf("invalid limit: maximum is %d", maxPageLimit)
	}
	return limit, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// validateAddress validates a wallet address for security and format.
func validateAddress(address string) error {
	if address == "" {
		return errorf("address is required")
	}

	if len(address) > maxAddressLength {
		return errorf("address too long: maximum length is %d characters", maxAddressLength)
	}

	// Check for null bytes and control characters
	for _, r := range address {
		if r == 0 || unicode.IsControl(r) {
			return errorf("invalid characters in address: control characters not allowed")
		}
	}

	// Check for common SQL injection patterns
	lowerAddr := strings.ToLower(address)
	sqlPatterns := []string{"drop ", "delete ", "insert ", "update ", "select ", "--", "/*", "*/", ";"}
	for _, pattern := range sqlPatterns {
		if strings.Contains(lowerAddr, pattern) {
			return errorf("invalid characters in address: suspicious pattern detected")
		}
	}

	if !validAddressRegex.MatchString(address) {
		return errorf("invalid address format: must contain only valid base58 characters")
	}

	return nil
}

// validateSignature validates a transaction signature parameter. Signatures
// are base58 like addresses, just longer (88 chars, give buffer).
func validateSignature(signature string) error {
	if signature == "" {
		return errorf("signature is required")
	}
	if len(signature) > 120 {
		return errorf("signature too long")
	}
	if !validAddressRegex.MatchString(signature) {
		return errorf("invalid signature format: must contain only valid base58 characters")
	}
	return nil
}

// errorf is a helper to format error strings.
func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}
