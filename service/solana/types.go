package solana

import (
	"time"

	"github.com/solledger/solledger/service/registry"
)

// SignatureInfo is a signature stub returned by getSignaturesForAddress.
// It carries only the metadata available from the signature list; full
// details require fetching the transaction body.
type SignatureInfo struct {
	Signature string     `json:"signature"`
	Slot      uint64     `json:"slot"`
	BlockTime *time.Time `json:"block_time,omitempty"`
	Err       *string    `json:"err,omitempty"`
	Memo      *string    `json:"memo,omitempty"`
}

// TokenBalance is one entry of a transaction's pre/post token balance arrays.
// Amount is the raw integer amount as a decimal string; UIAmountString is the
// RPC-provided display string and is never used for arithmetic.
type TokenBalance struct {
	AccountIndex   uint16 `json:"account_index"`
	Mint           string `json:"mint"`
	Owner          string `json:"owner,omitempty"`
	Amount         string `json:"amount"`
	Decimals       uint8  `json:"decimals"`
	UIAmountString string `json:"ui_amount_string,omitempty"`
}

// RawTransaction is the normalized, immutable form of a fetched transaction.
// It is constructed once per fetch and never mutated afterward; the whole
// downstream pipeline (ledger, classification) is a pure function of it.
type RawTransaction struct {
	Signature string    `json:"signature"`
	Slot      uint64    `json:"slot"`
	BlockTime time.Time `json:"block_time"`
	Err       *string   `json:"err,omitempty"` // nil = success
	Fee       uint64    `json:"fee"`

	// AccountKeys includes loaded lookup-table addresses; index 0 is the
	// fee payer. Balance arrays are indexed against this list.
	AccountKeys []string `json:"account_keys"`
	ProgramIDs  []string `json:"program_ids"`

	PreBalances  []uint64 `json:"pre_balances"`
	PostBalances []uint64 `json:"post_balances"`

	PreTokenBalances  []TokenBalance `json:"pre_token_balances,omitempty"`
	PostTokenBalances []TokenBalance `json:"post_token_balances,omitempty"`

	Memo *string `json:"memo,omitempty"`

	// Protocol is resolved once from the program IDs present; nil when no
	// known protocol matched.
	Protocol *registry.ProtocolInfo `json:"protocol,omitempty"`
}

// FeePayer returns the address of the transaction's fee payer (account 0).
func (tx *RawTransaction) FeePayer() string {
	if len(tx.AccountKeys) == 0 {
		return ""
	}
	return tx.AccountKeys[0]
}

// Failed reports whether the transaction errored on chain.
func (tx *RawTransaction) Failed() bool {
	return tx.Err != nil
}
