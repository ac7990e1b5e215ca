package ledger

import (
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

// feeRoleThresholdLamports is the upper bound (0.01 SOL) under which a small
// actor debit may be classified as a fee rather than a send.
const feeRoleThresholdLamports = 10_000_000

// Perspective selects which participant the ledger's role assignment keys
// off. The wallet-relative form tags the queried address as "wallet:" and is
// not shareable across queries; the fee-payer-relative form tags everyone as
// "external:"/"protocol:" and keys roles off the fee payer, so one computed
// ledger can be cached by signature and reused for any wallet.
type Perspective struct {
	wallet string
}

// WalletPerspective builds a ledger relative to the queried wallet.
func WalletPerspective(wallet string) Perspective {
	return Perspective{wallet: wallet}
}

// FeePayerPerspective builds a perspective-agnostic ledger keyed off the
// transaction's fee payer.
func FeePayerPerspective() Perspective {
	return Perspective{}
}

// walletRelative reports whether legs should carry "wallet:" tags.
func (p Perspective) walletRelative() bool {
	return p.wallet != ""
}

// actor returns the address role assignment keys off for the transaction.
func (p Perspective) actor(tx *solana.RawTransaction) string {
	if p.wallet != "" {
		return p.wallet
	}
	return tx.FeePayer()
}

// TransactionToLegs turns a transaction's balance deltas into an ordered list
// of double-entry legs. It is pure and deterministic: identical input yields
// an identical leg list, which is what lets classifications be cached
// indefinitely by signature.
//
// Leg order is fixed: native legs by account index, then the synthesized
// network-fee leg (when positive), then token legs in post-balance order.
func TransactionToLegs(tx *solana.RawTransaction, p Perspective, reg *registry.TokenRegistry) []TxLeg {
	actor := p.actor(tx)
	legs := make([]TxLeg, 0, 4)

	var totalDebits, totalCredits int64
	for _, change := range ExtractSolBalanceChanges(tx) {
		if change.Lamports > 0 {
			totalCredits += change.Lamports
		} else {
			totalDebits += -change.Lamports
		}
		legs = append(legs, nativeLeg(tx, change, actor, p.walletRelative()))
	}

	// Absent external errors, total outgoing native currency exceeds total
	// incoming by exactly the network fee. Synthesize a credit leg under the
	// reserved fee pseudo-account so each currency's legs balance to zero.
	if networkFee := totalDebits - totalCredits; networkFee > 0 {
		legs = append(legs, TxLeg{
			Account: FeeAccount,
			Side:    SideCredit,
			Amount:  NewMoneyAmount(NativeSOL, networkFee),
			Role:    RoleFee,
		})
	}

	for _, change := range ExtractTokenBalanceChanges(tx, reg) {
		legs = append(legs, tokenLeg(tx, change, actor, p.walletRelative()))
	}

	return legs
}

// nativeLeg emits the leg for one lamport delta. For the actor, a small
// negative delta is a fee only when it is both under the 0.01 SOL threshold
// and equal to the transaction's stated fee; a larger outflow, even one that
// merely includes the fee, is a send.
func nativeLeg(tx *solana.RawTransaction, change SolBalanceChange, actor string, walletRelative bool) TxLeg {
	side := SideCredit
	amount := change.Lamports
	if amount < 0 {
		side = SideDebit
		amount = -amount
	}

	var role LegRole
	if change.Address == actor {
		switch {
		case side == SideDebit && amount < feeRoleThresholdLamports && amount == int64(tx.Fee):
			role = RoleFee
		case side == SideDebit:
			role = RoleSent
		case tx.Protocol.IsStake():
			role = RoleReward
		default:
			role = RoleReceived
		}
	} else {
		if side == SideDebit {
			role = RoleSent
		} else {
			role = RoleReceived
		}
	}

	return TxLeg{
		Account: participantAccount(change.Address, actor, walletRelative),
		Side:    side,
		Amount:  NewMoneyAmount(NativeSOL, amount),
		Role:    role,
	}
}

// tokenLeg emits the leg for one token delta. Under a DEX or airdrop
// distributor protocol, non-actor accounts are the venue's pool or escrow
// accounts: they are tagged "protocol:" and their flows become protocol
// deposits/withdrawals.
func tokenLeg(tx *solana.RawTransaction, change TokenBalanceChange, actor string, walletRelative bool) TxLeg {
	side := SideCredit
	amount := change.RawDelta
	if amount < 0 {
		side = SideDebit
		amount = -amount
	}

	owner := change.Owner
	if owner == "" {
		owner = change.Address
	}
	isActor := owner == actor

	if (tx.Protocol.IsDEX() || tx.Protocol.IsAirdrop()) && !isActor {
		role := RoleProtocolWithdraw
		if side == SideDebit {
			role = RoleProtocolDeposit
		}
		return TxLeg{
			Account: AccountID{
				Kind:     AccountProtocol,
				Address:  owner,
				Protocol: tx.Protocol.ID,
				Token:    change.Token.Symbol,
			},
			Side:   side,
			Amount: NewMoneyAmount(change.Token, amount),
			Role:   role,
		}
	}

	role := RoleReceived
	if side == SideDebit {
		role = RoleSent
	}
	return TxLeg{
		Account: participantAccount(owner, actor, walletRelative),
		Side:    side,
		Amount:  NewMoneyAmount(change.Token, amount),
		Role:    role,
	}
}

// participantAccount tags an address as wallet or external depending on the
// selected perspective.
func participantAccount(address, actor string, walletRelative bool) AccountID {
	if walletRelative && address == actor {
		return AccountID{Kind: AccountWallet, Address: address}
	}
	return AccountID{Kind: AccountExternal, Address: address}
}
