package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// TransferClassifier matches plain one-asset movements: the actor either
// sent a single asset or received a single asset, with the counterpart on
// the other side of the same asset. It runs late in the chain so the more
// specific shapes get first refusal.
type TransferClassifier struct{}

func (c *TransferClassifier) Name() string { return "transfer" }

func (c *TransferClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)

	var moved ledger.TxLeg
	var outbound bool
	switch {
	case len(debits) == 1 && len(credits) == 0:
		moved, outbound = debits[0], true
	case len(credits) == 1 && len(debits) == 0:
		moved, outbound = credits[0], false
	default:
		return nil
	}

	result := &TransactionClassification{
		PrimaryType:   TypeTransfer,
		PrimaryAmount: amountPtr(moved.Amount),
		Confidence:    0.95,
	}
	if tx.Memo != nil {
		result.Metadata = Metadata{Transfer: &TransferMetadata{Memo: *tx.Memo}}
	}

	counterpart := findCounterpart(legs, moved, actor, outbound)
	if outbound {
		result.Sender = strPtr(actor)
		if counterpart != nil {
			result.Receiver = strPtr(counterpart.Account.Address)
			result.Counterparty = &Counterparty{
				Address: counterpart.Account.Address,
				Kind:    string(counterpart.Account.Kind),
			}
		}
	} else {
		result.Receiver = strPtr(actor)
		if counterpart != nil {
			result.Sender = strPtr(counterpart.Account.Address)
			result.Counterparty = &Counterparty{
				Address: counterpart.Account.Address,
				Kind:    string(counterpart.Account.Kind),
			}
		}
	}
	return result
}

// findCounterpart locates the opposite-side leg of the same asset belonging
// to someone other than the actor or the fee pseudo-account.
func findCounterpart(legs []ledger.TxLeg, moved ledger.TxLeg, actor string, outbound bool) *ledger.TxLeg {
	wantSide := ledger.SideCredit
	if !outbound {
		wantSide = ledger.SideDebit
	}
	for i, leg := range legs {
		if leg.Account.Kind == ledger.AccountFee || isActorLeg(leg, actor) {
			continue
		}
		if leg.Side == wantSide && leg.Amount.Token.Mint == moved.Amount.Token.Mint {
			return &legs[i]
		}
	}
	return nil
}
