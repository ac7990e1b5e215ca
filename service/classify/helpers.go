package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// actorAddress resolves which participant the legs describe. A
// wallet-relative ledger marks the actor explicitly; a fee-payer-relative
// ledger keys off account 0 of the transaction.
func actorAddress(legs []ledger.TxLeg, tx *solana.RawTransaction) string {
	for _, leg := range legs {
		if leg.Account.Kind == ledger.AccountWallet {
			return leg.Account.Address
		}
	}
	return tx.FeePayer()
}

// isNative reports whether the leg moves the native currency.
func isNative(leg ledger.TxLeg) bool {
	return leg.Amount.Token.Symbol == ledger.NativeSOL.Symbol &&
		leg.Amount.Token.Mint == ledger.NativeSOL.Mint
}

// isActorLeg reports whether a leg belongs to the given participant. The
// fee pseudo-account and protocol pool accounts never do.
func isActorLeg(leg ledger.TxLeg, actor string) bool {
	switch leg.Account.Kind {
	case ledger.AccountWallet, ledger.AccountExternal:
		return leg.Account.Address == actor
	default:
		return false
	}
}

// actorMovements splits the actor's legs into debits and credits, excluding
// fee-role legs: the network fee is overhead, not a movement the classifiers
// should see.
func actorMovements(legs []ledger.TxLeg, actor string) (debits, credits []ledger.TxLeg) {
	for _, leg := range legs {
		if !isActorLeg(leg, actor) || leg.Role == ledger.RoleFee {
			continue
		}
		if leg.Side == ledger.SideDebit {
			debits = append(debits, leg)
		} else {
			credits = append(credits, leg)
		}
	}
	return debits, credits
}

// distinctAssets counts the distinct currencies among legs, keyed by mint.
func distinctAssets(legs []ledger.TxLeg) int {
	seen := make(map[string]struct{}, len(legs))
	for _, leg := range legs {
		seen[leg.Amount.Token.Mint] = struct{}{}
	}
	return len(seen)
}

// amounts extracts the MoneyAmounts of the given legs.
func amounts(legs []ledger.TxLeg) []ledger.MoneyAmount {
	out := make([]ledger.MoneyAmount, 0, len(legs))
	for _, leg := range legs {
		out = append(out, leg.Amount)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}

func amountPtr(a ledger.MoneyAmount) *ledger.MoneyAmount {
	copied := a
	return &copied
}
