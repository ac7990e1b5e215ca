package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// StakeClassifier matches deposits into and withdrawals out of a staking
// venue. A liquid-staking deposit (SOL out, mSOL back) still counts as a
// deposit; the receipt token rides along as the secondary amount.
type StakeClassifier struct{}

func (c *StakeClassifier) Name() string { return "stake" }

func (c *StakeClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	if !tx.Protocol.IsStake() {
		return nil
	}

	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)

	// Stake operations are "self": the actor's funds change venue, not owner.
	if len(debits) > 0 {
		result := &TransactionClassification{
			PrimaryType:   TypeStakeDeposit,
			PrimaryAmount: amountPtr(debits[0].Amount),
			Sender:        strPtr(actor),
			Receiver:      strPtr(actor),
			Counterparty: &Counterparty{
				Name:    tx.Protocol.Name,
				Address: tx.Protocol.ID,
				Kind:    "protocol",
			},
			Confidence: 0.85,
			Metadata: Metadata{Stake: &StakeMetadata{
				ProtocolID: tx.Protocol.ID,
				Action:     "deposit",
			}},
		}
		if len(credits) > 0 {
			result.SecondaryAmount = amountPtr(credits[0].Amount)
		}
		return result
	}

	// No outflow: an unstake or a reward payout, both inbound.
	if len(credits) > 0 {
		return &TransactionClassification{
			PrimaryType:   TypeStakeWithdraw,
			PrimaryAmount: amountPtr(credits[0].Amount),
			Sender:        strPtr(actor),
			Receiver:      strPtr(actor),
			Counterparty: &Counterparty{
				Name:    tx.Protocol.Name,
				Address: tx.Protocol.ID,
				Kind:    "protocol",
			},
			Confidence: 0.85,
			Metadata: Metadata{Stake: &StakeMetadata{
				ProtocolID: tx.Protocol.ID,
				Action:     "withdraw",
			}},
		}
	}

	return nil
}
