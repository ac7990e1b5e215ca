package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// SwapClassifier matches one-asset-out, one-asset-in trades under a DEX.
// Either side may be the native currency; the out leg's raw amount already
// includes the network fee when SOL is the sold asset, which is fine because
// the fee-role leg is excluded up front.
type SwapClassifier struct{}

func (c *SwapClassifier) Name() string { return "swap" }

func (c *SwapClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	if !tx.Protocol.IsDEX() {
		return nil
	}

	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)

	if distinctAssets(debits) != 1 || distinctAssets(credits) != 1 {
		return nil
	}
	out := debits[0]
	in := credits[0]
	if out.Amount.Token.Mint == in.Amount.Token.Mint {
		return nil
	}

	// Swaps are "self" operations: the actor is both sender and receiver.
	return &TransactionClassification{
		PrimaryType:     TypeSwap,
		PrimaryAmount:   amountPtr(in.Amount),
		SecondaryAmount: amountPtr(out.Amount),
		Sender:          strPtr(actor),
		Receiver:        strPtr(actor),
		Counterparty: &Counterparty{
			Name:    tx.Protocol.Name,
			Address: tx.Protocol.ID,
			Kind:    "protocol",
		},
		Confidence: 0.9,
		Metadata: Metadata{Swap: &SwapMetadata{
			ProtocolID: tx.Protocol.ID,
			FromToken:  out.Amount.Token.Symbol,
			ToToken:    in.Amount.Token.Symbol,
		}},
	}
}
