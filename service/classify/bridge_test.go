package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solledger/solledger/service/ledger"
)

func TestBridgeClassifierOutbound(t *testing.T) {
	c := &BridgeClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, usdcToken, 250_000_000, ledger.RoleSent),
	)

	result := c.Classify(legs, testTx(bridgeProtocol))
	require.NotNil(t, result)
	assert.Equal(t, TypeBridge, result.PrimaryType)
	require.NotNil(t, result.PrimaryAmount)
	assert.Equal(t, int64(250_000_000), result.PrimaryAmount.Raw)
	require.NotNil(t, result.Metadata.Bridge)
	assert.Equal(t, "wormhole", result.Metadata.Bridge.ProtocolID)
	assert.Equal(t, "out", result.Metadata.Bridge.Direction)
}

func TestBridgeClassifierInbound(t *testing.T) {
	c := &BridgeClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideCredit, usdcToken, 250_000_000, ledger.RoleReceived),
	)

	result := c.Classify(legs, testTx(bridgeProtocol))
	require.NotNil(t, result)
	require.NotNil(t, result.Metadata.Bridge)
	assert.Equal(t, "in", result.Metadata.Bridge.Direction)
}

func TestBridgeClassifierRejectsTwoWayFlow(t *testing.T) {
	c := &BridgeClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, usdcToken, 250_000_000, ledger.RoleSent),
		externalLeg(testActor, ledger.SideCredit, bonkToken, 100, ledger.RoleReceived),
	)

	assert.Nil(t, c.Classify(legs, testTx(bridgeProtocol)))
}

func TestBridgeClassifierRequiresBridgeVenue(t *testing.T) {
	c := &BridgeClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, usdcToken, 250_000_000, ledger.RoleSent),
	)

	assert.Nil(t, c.Classify(legs, testTx(nil)))
}
