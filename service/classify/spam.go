package classify

import (
	"github.com/solledger/solledger/service/ledger"
)

// Valuer estimates the USD value of an amount. It is injected rather than
// built in: the core has no price source, and the pipeline must stay a pure
// function of the transaction body. A nil valuer disables USD floors.
type Valuer func(amount ledger.MoneyAmount) (usd float64, ok bool)

// SpamFilterOpts configures the post-classification noise filter.
type SpamFilterOpts struct {
	// MinLamports drops native movements below this raw amount.
	MinLamports int64
	// MinTokenValueUSD drops token movements the Valuer prices below this.
	MinTokenValueUSD float64
	// MinConfidence drops classifications below this confidence floor.
	MinConfidence float64
	// AllowFailed keeps failed transactions instead of dropping them.
	AllowFailed bool
	// Valuer prices token amounts for the USD floor; nil disables it.
	Valuer Valuer
}

// FilterSpam removes dust and noise from a classified transaction list:
// failed transactions (unless allowed), low-confidence classifications, and
// movements below the configured native/USD floors. It is pure, stateless,
// and order-preserving.
func FilterSpam(classified []ClassifiedTransaction, opts SpamFilterOpts) []ClassifiedTransaction {
	out := make([]ClassifiedTransaction, 0, len(classified))
	for _, ct := range classified {
		if !opts.AllowFailed && ct.Tx.Failed() {
			continue
		}
		if ct.Classification.Confidence < opts.MinConfidence {
			continue
		}
		if isDust(ct.Classification.PrimaryAmount, opts) {
			continue
		}
		out = append(out, ct)
	}
	return out
}

// isDust applies the value floors to a classification's primary amount.
// A classification with no primary amount is never dust on value grounds.
func isDust(amount *ledger.MoneyAmount, opts SpamFilterOpts) bool {
	if amount == nil {
		return false
	}
	if amount.Token.Mint == ledger.NativeSOL.Mint && amount.Token.Symbol == ledger.NativeSOL.Symbol {
		return amount.Raw < opts.MinLamports
	}
	if opts.Valuer != nil && opts.MinTokenValueUSD > 0 {
		if usd, ok := opts.Valuer(*amount); ok {
			return usd < opts.MinTokenValueUSD
		}
	}
	return false
}
