package classify

import "strings"

// Direction values derived from a classification for a given wallet.
const (
	DirectionIn   = "in"
	DirectionOut  = "out"
	DirectionSelf = "self"
)

// DirectionFor derives the in/out/self direction of a classification from a
// given wallet's point of view. This is a consumer-side derivation, not part
// of the engine's output: swaps, stake and liquidity operations are always
// "self"; airdrops are always "in"; otherwise the wallet is compared against
// sender and receiver (case-insensitive).
func DirectionFor(c TransactionClassification, wallet string) string {
	switch c.PrimaryType {
	case TypeSwap, TypeStakeDeposit, TypeStakeWithdraw, TypeLiquidityAdd, TypeLiquidityRemove, TypeBridge:
		return DirectionSelf
	case TypeAirdrop:
		return DirectionIn
	}

	sender := c.Sender != nil && strings.EqualFold(*c.Sender, wallet)
	receiver := c.Receiver != nil && strings.EqualFold(*c.Receiver, wallet)
	switch {
	case sender && receiver:
		return DirectionSelf
	case receiver:
		return DirectionIn
	default:
		return DirectionOut
	}
}
