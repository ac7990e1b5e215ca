package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

// AirdropClassifier matches unsolicited token distributions: the actor
// received exactly one token whose counterpart debit comes from a protocol
// pool account, and the actor gave nothing up in the same transaction.
type AirdropClassifier struct {
	detector *registry.Detector
}

// NewAirdropClassifier builds the classifier. The detector identifies known
// airdrop facilitator programs among the transaction's account keys and may
// be nil.
func NewAirdropClassifier(detector *registry.Detector) *AirdropClassifier {
	return &AirdropClassifier{detector: detector}
}

func (c *AirdropClassifier) Name() string { return "airdrop" }

func (c *AirdropClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)

	// An airdrop gives; it never takes. Any actor debit disqualifies.
	if len(debits) > 0 {
		return nil
	}

	// Exactly one credited asset, and it must be a token, not the native
	// currency.
	if len(credits) != 1 || isNative(credits[0]) {
		return nil
	}
	credit := credits[0]

	// The counterpart debit must come from a protocol-tagged account of the
	// same asset: the protocol is the sender.
	var source *ledger.TxLeg
	for i, leg := range legs {
		if leg.Account.Kind == ledger.AccountProtocol &&
			leg.Side == ledger.SideDebit &&
			leg.Amount.Token.Mint == credit.Amount.Token.Mint {
			source = &legs[i]
			break
		}
	}
	if source == nil {
		return nil
	}

	metadata := &AirdropMetadata{
		Token:       credit.Amount.Token.Symbol,
		Amount:      credit.Amount.UI,
		AirdropType: "token",
	}
	if c.detector != nil {
		if facilitator, ok := c.detector.Facilitator(tx.AccountKeys); ok {
			metadata.Facilitator = facilitator
		}
	}

	return &TransactionClassification{
		PrimaryType:   TypeAirdrop,
		PrimaryAmount: amountPtr(credit.Amount),
		Sender:        strPtr(source.Account.Address),
		Receiver:      strPtr(actor),
		Counterparty: &Counterparty{
			Name:    source.Account.Protocol,
			Address: source.Account.Address,
			Kind:    "protocol",
		},
		Confidence: 0.9,
		Metadata:   Metadata{Airdrop: metadata},
	}
}
