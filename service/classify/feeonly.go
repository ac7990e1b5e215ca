package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// FeeOnlyClassifier matches transactions where the only movement is the
// network fee itself: failed swaps, vote-adjacent noise, or bare
// account-maintenance transactions.
type FeeOnlyClassifier struct{}

func (c *FeeOnlyClassifier) Name() string { return "fee_only" }

func (c *FeeOnlyClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	if len(legs) == 0 {
		return nil
	}

	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)
	if len(debits) != 0 || len(credits) != 0 {
		return nil
	}

	var fee *ledger.TxLeg
	for i, leg := range legs {
		if leg.Role == ledger.RoleFee && isActorLeg(leg, actor) {
			fee = &legs[i]
			break
		}
	}
	if fee == nil {
		return nil
	}

	return &TransactionClassification{
		PrimaryType:   TypeFeeOnly,
		PrimaryAmount: amountPtr(fee.Amount),
		Sender:        strPtr(actor),
		Confidence:    0.9,
	}
}
