package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

// BridgeClassifier matches single-asset flows through a known bridge
// program: an outflow is a bridge-out to another chain, an inflow a
// bridge-in from one.
type BridgeClassifier struct{}

func (c *BridgeClassifier) Name() string { return "bridge" }

func (c *BridgeClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	if tx.Protocol == nil || tx.Protocol.Kind != registry.ProtocolKindBridge {
		return nil
	}

	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)

	var moved ledger.TxLeg
	var direction string
	switch {
	case len(debits) == 1 && len(credits) == 0:
		moved, direction = debits[0], "out"
	case len(credits) == 1 && len(debits) == 0:
		moved, direction = credits[0], "in"
	default:
		return nil
	}

	return &TransactionClassification{
		PrimaryType:   TypeBridge,
		PrimaryAmount: amountPtr(moved.Amount),
		Sender:        strPtr(actor),
		Receiver:      strPtr(actor),
		Counterparty: &Counterparty{
			Name:    tx.Protocol.Name,
			Address: tx.Protocol.ID,
			Kind:    "protocol",
		},
		Confidence: 0.8,
		Metadata: Metadata{Bridge: &BridgeMetadata{
			ProtocolID: tx.Protocol.ID,
			Direction:  direction,
		}},
	}
}
