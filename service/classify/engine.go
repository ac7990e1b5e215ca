package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

// Engine evaluates an explicit, ordered chain of classifiers and returns the
// first match. The ordering runs from the most structurally specific pattern
// to the most generic one, because the narrow shapes (airdrop, liquidity)
// would otherwise be swallowed by the generic transfer classifier:
//
//  1. airdrop        - protocol-sourced token credit, nothing debited
//  2. liquidity      - multi-token pool deposit/withdrawal under a DEX
//  3. swap           - one asset out, one asset in under a DEX
//  4. stake          - flow to/from a staking venue
//  5. bridge         - flow to/from a bridge venue
//  6. nft_mint       - zero-decimal single-unit credit under an NFT program
//  7. transfer       - a single asset moved in or out
//  8. fee_only       - nothing moved but the network fee
//  9. unknown        - always matches; a transaction is never left unclassified
type Engine struct {
	chain []Classifier
}

// NewEngine builds an engine with an explicit classifier order. The fallback
// is appended automatically.
func NewEngine(classifiers ...Classifier) *Engine {
	return &Engine{chain: append(classifiers, &fallbackClassifier{})}
}

// DefaultEngine returns the engine with the documented default chain.
func DefaultEngine(detector *registry.Detector) *Engine {
	return NewEngine(
		NewAirdropClassifier(detector),
		&LiquidityClassifier{},
		&SwapClassifier{},
		&StakeClassifier{},
		&BridgeClassifier{},
		&NFTMintClassifier{},
		&TransferClassifier{},
		&FeeOnlyClassifier{},
	)
}

// Classify runs the chain and returns the first non-nil result. The fallback
// always matches, so the result is never nil and every transaction ends up
// classified.
func (e *Engine) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) TransactionClassification {
	for _, c := range e.chain {
		if result := c.Classify(legs, tx); result != nil {
			return *result
		}
	}
	// Unreachable: the fallback classifier always returns a result.
	return TransactionClassification{PrimaryType: TypeUnknown}
}

// fallbackClassifier matches everything with low confidence so no
// transaction is ever left unclassified.
type fallbackClassifier struct{}

func (f *fallbackClassifier) Name() string { return "unknown" }

func (f *fallbackClassifier) Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification {
	return &TransactionClassification{
		PrimaryType: TypeUnknown,
		Confidence:  0.25,
	}
}
