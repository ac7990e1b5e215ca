package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solledger/solledger/service/ledger"
)

func TestSwapClassifierMatch(t *testing.T) {
	c := &SwapClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, usdcToken, 50_000_000, ledger.RoleSent),
		protocolLeg("raydium", ledger.SideCredit, usdcToken, 50_000_000, ledger.RoleProtocolWithdraw),
		protocolLeg("raydium", ledger.SideDebit, ledger.NativeSOL, 1_000_000_000, ledger.RoleProtocolDeposit),
		externalLeg(testActor, ledger.SideCredit, ledger.NativeSOL, 1_000_000_000, ledger.RoleReceived),
	)

	result := c.Classify(legs, testTx(dexProtocol))
	require.NotNil(t, result)
	assert.Equal(t, TypeSwap, result.PrimaryType)

	// Primary is what came in, secondary what went out.
	require.NotNil(t, result.PrimaryAmount)
	assert.Equal(t, "SOL", result.PrimaryAmount.Token.Symbol)
	assert.Equal(t, int64(1_000_000_000), result.PrimaryAmount.Raw)
	require.NotNil(t, result.SecondaryAmount)
	assert.Equal(t, "USDC", result.SecondaryAmount.Token.Symbol)

	require.NotNil(t, result.Sender)
	require.NotNil(t, result.Receiver)
	assert.Equal(t, testActor, *result.Sender)
	assert.Equal(t, testActor, *result.Receiver)

	require.NotNil(t, result.Counterparty)
	assert.Equal(t, "Raydium", result.Counterparty.Name)

	require.NotNil(t, result.Metadata.Swap)
	assert.Equal(t, "USDC", result.Metadata.Swap.FromToken)
	assert.Equal(t, "SOL", result.Metadata.Swap.ToToken)
}

func TestSwapClassifierRequiresDEX(t *testing.T) {
	c := &SwapClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, usdcToken, 50_000_000, ledger.RoleSent),
		externalLeg(testActor, ledger.SideCredit, ledger.NativeSOL, 1_000_000_000, ledger.RoleReceived),
	)

	assert.Nil(t, c.Classify(legs, testTx(nil)))
}

func TestSwapClassifierRejectsSameAsset(t *testing.T) {
	c := &SwapClassifier{}

	// USDC out and USDC back is not a trade.
	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, usdcToken, 50_000_000, ledger.RoleSent),
		externalLeg(testActor, ledger.SideCredit, usdcToken, 49_000_000, ledger.RoleReceived),
	)

	assert.Nil(t, c.Classify(legs, testTx(dexProtocol)))
}

func TestSwapClassifierRejectsMultiAssetSides(t *testing.T) {
	c := &SwapClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, usdcToken, 50_000_000, ledger.RoleSent),
		externalLeg(testActor, ledger.SideDebit, bonkToken, 100, ledger.RoleSent),
		externalLeg(testActor, ledger.SideCredit, ledger.NativeSOL, 1_000_000_000, ledger.RoleReceived),
	)

	assert.Nil(t, c.Classify(legs, testTx(dexProtocol)))
}
