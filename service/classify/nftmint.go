package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

// NFTMintClassifier matches mints under a known NFT program: the actor
// receives a single unit of a zero-decimal token and pays for it in native
// currency. The native debit becomes the secondary amount (the mint price).
type NFTMintClassifier struct{}

func (c *NFTMintClassifier) Name() string { return "nft_mint" }

func (c *NFTMintClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	if tx.Protocol == nil || tx.Protocol.Kind != registry.ProtocolKindNFT {
		return nil
	}

	actor := actorAddress(legs, tx)
	debits, credits := actorMovements(legs, actor)

	var nft *ledger.TxLeg
	for i, leg := range credits {
		if leg.Amount.Token.Decimals == 0 && leg.Amount.Raw == 1 && !isNative(leg) {
			nft = &credits[i]
			break
		}
	}
	if nft == nil {
		return nil
	}

	result := &TransactionClassification{
		PrimaryType:   TypeNFTMint,
		PrimaryAmount: amountPtr(nft.Amount),
		Sender:        strPtr(tx.Protocol.ID),
		Receiver:      strPtr(actor),
		Counterparty: &Counterparty{
			Name:    tx.Protocol.Name,
			Address: tx.Protocol.ID,
			Kind:    "protocol",
		},
		Confidence: 0.85,
		Metadata: Metadata{NFTMint: &NFTMintMetadata{
			Name: nft.Amount.Token.Name,
			Mint: nft.Amount.Token.Mint,
		}},
	}
	// The price is whatever native currency the actor gave up.
	for _, leg := range debits {
		if isNative(leg) {
			result.SecondaryAmount = amountPtr(leg.Amount)
			break
		}
	}
	return result
}
