package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/registry"
	"github.com/solledger/solledger/service/solana"
)

const (
	testActor    = "ActorWa11et1111111111111111111111111111111"
	testExternal = "Externa1Wa11et111111111111111111111111111"
)

var (
	usdcToken = registry.TokenInfo{
		Mint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Symbol:   "USDC",
		Name:     "USD Coin",
		Decimals: 6,
	}
	bonkToken = registry.TokenInfo{
		Mint:     "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		Symbol:   "BONK",
		Name:     "Bonk",
		Decimals: 5,
	}
	msolToken = registry.TokenInfo{
		Mint:     "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So",
		Symbol:   "mSOL",
		Name:     "Marinade staked SOL",
		Decimals: 9,
	}
	lpToken = registry.TokenInfo{
		Mint:     "LPPoo11111111111111111111111111111111111111",
		Symbol:   "RAY-USDC",
		Name:     "Raydium LP",
		Decimals: 6,
		LPToken:  true,
	}

	dexProtocol = &registry.ProtocolInfo{
		ID: "raydium", Name: "Raydium", Kind: registry.ProtocolKindDEX,
	}
	stakeProtocol = &registry.ProtocolInfo{
		ID: "marinade", Name: "Marinade Finance", Kind: registry.ProtocolKindStake,
	}
	bridgeProtocol = &registry.ProtocolInfo{
		ID: "wormhole", Name: "Wormhole", Kind: registry.ProtocolKindBridge,
	}
	nftProtocol = &registry.ProtocolInfo{
		ID: "candy_machine", Name: "Candy Machine", Kind: registry.ProtocolKindNFT,
	}
)

// testTx builds a fee-payer-relative transaction shell: the actor is account
// zero, so classifiers key their roles off it.
func testTx(protocol *registry.ProtocolInfo) *solana.RawTransaction {
	return &solana.RawTransaction{
		Signature:   "test-signature",
		Slot:        100,
		Fee:         5000,
		AccountKeys: []string{testActor, testExternal},
		Protocol:    protocol,
	}
}

func externalLeg(address string, side ledger.LegSide, token registry.TokenInfo, raw int64, role ledger.LegRole) ledger.TxLeg {
	return ledger.TxLeg{
		Account: ledger.AccountID{Kind: ledger.AccountExternal, Address: address},
		Side:    side,
		Amount:  ledger.NewMoneyAmount(token, raw),
		Role:    role,
	}
}

func protocolLeg(protocolID string, side ledger.LegSide, token registry.TokenInfo, raw int64, role ledger.LegRole) ledger.TxLeg {
	return ledger.TxLeg{
		Account: ledger.AccountID{
			Kind:     ledger.AccountProtocol,
			Address:  "Poo1Account111111111111111111111111111111",
			Protocol: protocolID,
			Token:    token.Symbol,
		},
		Side:   side,
		Amount: ledger.NewMoneyAmount(token, raw),
		Role:   role,
	}
}

// feeLegs is the leg pair every fee-paying transaction carries: the actor's
// fee debit and the matching network credit.
func feeLegs(fee int64) []ledger.TxLeg {
	return []ledger.TxLeg{
		externalLeg(testActor, ledger.SideDebit, ledger.NativeSOL, fee, ledger.RoleFee),
		{
			Account: ledger.FeeAccount,
			Side:    ledger.SideCredit,
			Amount:  ledger.NewMoneyAmount(ledger.NativeSOL, fee),
			Role:    ledger.RoleFee,
		},
	}
}
