package ledger

import (
	"strconv"

	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

// ExtractSolBalanceChanges computes post-pre lamport deltas for every account
// index present in both balance arrays, skipping zero deltas. The result is
// ordered by account index, keeping extraction deterministic.
func ExtractSolBalanceChanges(tx *solana.RawTransaction) []SolBalanceChange {
	n := len(tx.PreBalances)
	if len(tx.PostBalances) < n {
		n = len(tx.PostBalances)
	}

	changes := make([]SolBalanceChange, 0, n)
	for i := 0; i < n; i++ {
		delta := int64(tx.PostBalances[i]) - int64(tx.PreBalances[i])
		if delta == 0 {
			continue
		}
		address := ""
		if i < len(tx.AccountKeys) {
			address = tx.AccountKeys[i]
		}
		changes = append(changes, SolBalanceChange{
			AccountIndex: i,
			Address:      address,
			Lamports:     delta,
		})
	}
	return changes
}

// ExtractTokenBalanceChanges computes raw and UI token deltas for every post
// token balance entry. Entries whose mint is not in the registry are skipped:
// a token we cannot describe cannot participate in the ledger. When
// filterMints is non-empty, only those mints are considered.
//
// The raw delta is exact integer arithmetic on the RPC amount strings; the
// UI delta is computed from the RPC display strings independently, not
// derived from the raw delta, to avoid double rounding.
func ExtractTokenBalanceChanges(tx *solana.RawTransaction, reg *registry.TokenRegistry, filterMints ...string) []TokenBalanceChange {
	filter := make(map[string]struct{}, len(filterMints))
	for _, mint := range filterMints {
		filter[mint] = struct{}{}
	}

	preByAccount := make(map[uint16]solana.TokenBalance, len(tx.PreTokenBalances))
	for _, pre := range tx.PreTokenBalances {
		preByAccount[pre.AccountIndex] = pre
	}

	changes := make([]TokenBalanceChange, 0, len(tx.PostTokenBalances))
	for _, post := range tx.PostTokenBalances {
		if len(filter) > 0 {
			if _, ok := filter[post.Mint]; !ok {
				continue
			}
		}
		token, ok := reg.Lookup(post.Mint)
		if !ok {
			continue
		}

		pre := preByAccount[post.AccountIndex]

		postRaw := parseRawAmount(post.Amount)
		preRaw := parseRawAmount(pre.Amount)
		rawDelta := postRaw - preRaw
		if rawDelta == 0 {
			continue
		}

		uiDelta := parseUIAmount(post.UIAmountString, postRaw, token.Decimals) -
			parseUIAmount(pre.UIAmountString, preRaw, token.Decimals)

		address := ""
		if int(post.AccountIndex) < len(tx.AccountKeys) {
			address = tx.AccountKeys[post.AccountIndex]
		}
		owner := post.Owner
		if owner == "" {
			owner = pre.Owner
		}

		changes = append(changes, TokenBalanceChange{
			AccountIndex: int(post.AccountIndex),
			Address:      address,
			Owner:        owner,
			Token:        token,
			RawDelta:     rawDelta,
			UIDelta:      uiDelta,
		})
	}
	return changes
}

// parseRawAmount parses an RPC raw amount string; a missing entry (empty
// string) means a zero balance.
func parseRawAmount(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseUIAmount parses the RPC display string, falling back to deriving from
// the raw amount only when the node omitted a display value.
func parseUIAmount(s string, raw int64, decimals uint8) float64 {
	if s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return NewMoneyAmount(registry.TokenInfo{Decimals: decimals}, raw).UI
}
