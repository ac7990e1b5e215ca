package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/registry"
)

var nftToken = registry.TokenInfo{
	Mint:     "NFTMint11111111111111111111111111111111111",
	Symbol:   "NFTMin",
	Name:     "Degen Ape #42",
	Decimals: 0,
}

func TestNFTMintClassifierMatch(t *testing.T) {
	c := &NFTMintClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideDebit, ledger.NativeSOL, 1_500_000_000, ledger.RoleSent),
		externalLeg(testActor, ledger.SideCredit, nftToken, 1, ledger.RoleReceived),
	)

	result := c.Classify(legs, testTx(nftProtocol))
	require.NotNil(t, result)
	assert.Equal(t, TypeNFTMint, result.PrimaryType)

	require.NotNil(t, result.PrimaryAmount)
	assert.Equal(t, int64(1), result.PrimaryAmount.Raw)

	// The mint price rides along as the secondary amount.
	require.NotNil(t, result.SecondaryAmount)
	assert.Equal(t, int64(1_500_000_000), result.SecondaryAmount.Raw)
	assert.Equal(t, "SOL", result.SecondaryAmount.Token.Symbol)

	require.NotNil(t, result.Metadata.NFTMint)
	assert.Equal(t, "Degen Ape #42", result.Metadata.NFTMint.Name)
	assert.Equal(t, nftToken.Mint, result.Metadata.NFTMint.Mint)
}

func TestNFTMintClassifierRequiresSingleUnitCredit(t *testing.T) {
	c := &NFTMintClassifier{}

	// A fungible token credit under an NFT program is not a mint.
	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideCredit, usdcToken, 1_000_000, ledger.RoleReceived),
	)

	assert.Nil(t, c.Classify(legs, testTx(nftProtocol)))
}

func TestNFTMintClassifierRequiresNFTVenue(t *testing.T) {
	c := &NFTMintClassifier{}

	legs := append(feeLegs(5000),
		externalLeg(testActor, ledger.SideCredit, nftToken, 1, ledger.RoleReceived),
	)

	assert.Nil(t, c.Classify(legs, testTx(nil)))
	assert.Nil(t, c.Classify(legs, testTx(dexProtocol)))
}
