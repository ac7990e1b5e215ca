package nats

import (
	"time"

	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/ledger"
)

// ClassificationEvent represents a classified transaction published to NATS.
// This is published to the subject "classified.{wallet_address}" in JetStream.
type ClassificationEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`

	// Wallet the classification run was requested for
	WalletAddress string `json:"wallet_address"`

	// Classification outcome
	PrimaryType string  `json:"primary_type"`
	Direction   string  `json:"direction"`
	Confidence  float64 `json:"confidence"`
	Failed      bool    `json:"failed"`

	// Primary movement, if any
	PrimaryAmount *ledger.MoneyAmount `json:"primary_amount,omitempty"`

	// Full classification payload for consumers that need the details
	Classification classify.TransactionClassification `json:"classification"`

	// Timing information
	BlockTime   time.Time `json:"block_time"`
	PublishedAt time.Time `json:"published_at"`
}

// FromClassified converts a pipeline result to a ClassificationEvent for
// publishing, computing the wallet-relative direction.
func FromClassified(walletAddress string, ct *classify.ClassifiedTransaction) *ClassificationEvent {
	return &ClassificationEvent{
		Signature:      ct.Tx.Signature,
		Slot:           ct.Tx.Slot,
		WalletAddress:  walletAddress,
		PrimaryType:    string(ct.Classification.PrimaryType),
		Direction:      classify.DirectionFor(ct.Classification, walletAddress),
		Confidence:     ct.Classification.Confidence,
		Failed:         ct.Tx.Failed(),
		PrimaryAmount:  ct.Classification.PrimaryAmount,
		Classification: ct.Classification,
		BlockTime:      ct.Tx.BlockTime,
		PublishedAt:    time.Now().UTC(),
	}
}
