package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// LiquidityClassifier matches add/remove-liquidity operations on a DEX:
// multiple tokens deposited against an LP-token credit, or an LP-token debit
// against multiple tokens received. A transaction with exactly one token out
// and one token in under a DEX is a swap, not liquidity, and must fall
// through to the swap classifier.
type LiquidityClassifier struct{}

func (c *LiquidityClassifier) Name() string { return "liquidity" }

func (c *LiquidityClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	if !tx.Protocol.IsDEX() {
		return nil
	}

	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)

	var lpCredits, tokenCredits, lpDebits, tokenDebits []ledger.TxLeg
	for _, leg := range credits {
		if leg.Amount.Token.LPToken {
			lpCredits = append(lpCredits, leg)
		} else {
			tokenCredits = append(tokenCredits, leg)
		}
	}
	for _, leg := range debits {
		if leg.Amount.Token.LPToken {
			lpDebits = append(lpDebits, leg)
		} else {
			tokenDebits = append(tokenDebits, leg)
		}
	}

	// One token each way is a swap; explicitly not ours.
	if len(lpCredits) == 0 && len(lpDebits) == 0 {
		return nil
	}

	// Add liquidity: at least two distinct tokens deposited, LP share minted
	// to the actor.
	if len(lpCredits) > 0 && distinctAssets(tokenDebits) >= 2 {
		result := &TransactionClassification{
			PrimaryType:   TypeLiquidityAdd,
			PrimaryAmount: amountPtr(tokenDebits[0].Amount),
			Sender:        strPtr(actor),
			Receiver:      strPtr(tx.Protocol.ID),
			Counterparty: &Counterparty{
				Name:    tx.Protocol.Name,
				Address: tx.Protocol.ID,
				Kind:    "protocol",
			},
			Confidence: 0.85,
			Metadata: Metadata{Liquidity: &LiquidityMetadata{
				ProtocolID: tx.Protocol.ID,
				Deposited:  amounts(tokenDebits),
				Received:   amounts(lpCredits),
			}},
		}
		if len(tokenDebits) > 1 {
			result.SecondaryAmount = amountPtr(tokenDebits[1].Amount)
		}
		return result
	}

	// Remove liquidity: LP share burned, at least two distinct tokens back.
	if len(lpDebits) > 0 && distinctAssets(tokenCredits) >= 2 {
		result := &TransactionClassification{
			PrimaryType:   TypeLiquidityRemove,
			PrimaryAmount: amountPtr(tokenCredits[0].Amount),
			Sender:        strPtr(tx.Protocol.ID),
			Receiver:      strPtr(actor),
			Counterparty: &Counterparty{
				Name:    tx.Protocol.Name,
				Address: tx.Protocol.ID,
				Kind:    "protocol",
			},
			Confidence: 0.85,
			Metadata: Metadata{Liquidity: &LiquidityMetadata{
				ProtocolID: tx.Protocol.ID,
				Deposited:  amounts(lpDebits),
				Received:   amounts(tokenCredits),
			}},
		}
		if len(tokenCredits) > 1 {
			result.SecondaryAmount = amountPtr(tokenCredits[1].Amount)
		}
		return result
	}

	return nil
}
