package classify

import (
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

// PrimaryType is the closed-set transaction category assigned by the
// classifier chain.
type PrimaryType string

const (
	TypeTransfer        PrimaryType = "transfer"
	TypeSwap            PrimaryType = "swap"
	TypeStakeDeposit    PrimaryType = "stake_deposit"
	TypeStakeWithdraw   PrimaryType = "stake_withdraw"
	TypeLiquidityAdd    PrimaryType = "liquidity_add"
	TypeLiquidityRemove PrimaryType = "liquidity_remove"
	TypeAirdrop         PrimaryType = "airdrop"
	TypeBridge          PrimaryType = "bridge"
	TypeNFTMint         PrimaryType = "nft_mint"
	TypeFeeOnly         PrimaryType = "fee_only"
	TypeUnknown         PrimaryType = "unknown"
)

// Counterparty identifies the other side of a classified transaction.
type Counterparty struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Kind    string `json:"kind"` // "wallet", "protocol", "external"
}

// Metadata is the per-kind payload of a classification. Exactly one variant
// is set, matching the primary type; encoding as a struct of optional
// variants keeps the union JSON round-trippable for the cache and store.
type Metadata struct {
	Airdrop   *AirdropMetadata   `json:"airdrop,omitempty"`
	Swap      *SwapMetadata      `json:"swap,omitempty"`
	Liquidity *LiquidityMetadata `json:"liquidity,omitempty"`
	Transfer  *TransferMetadata  `json:"transfer,omitempty"`
	Stake     *StakeMetadata     `json:"stake,omitempty"`
	Bridge    *BridgeMetadata    `json:"bridge,omitempty"`
	NFTMint   *NFTMintMetadata   `json:"nft_mint,omitempty"`
}

// AirdropMetadata carries airdrop-specific details.
type AirdropMetadata struct {
	Token       string  `json:"token"`
	Amount      float64 `json:"amount"`
	AirdropType string  `json:"airdrop_type"`
	Facilitator string  `json:"facilitator,omitempty"`
}

// SwapMetadata carries swap-specific details.
type SwapMetadata struct {
	ProtocolID string `json:"protocol_id"`
	FromToken  string `json:"from_token"`
	ToToken    string `json:"to_token"`
}

// LiquidityMetadata records what was deposited into and received from a pool.
type LiquidityMetadata struct {
	ProtocolID string               `json:"protocol_id"`
	Deposited  []ledger.MoneyAmount `json:"deposited,omitempty"`
	Received   []ledger.MoneyAmount `json:"received,omitempty"`
}

// TransferMetadata carries plain-transfer details.
type TransferMetadata struct {
	Memo string `json:"memo,omitempty"`
}

// StakeMetadata carries staking details.
type StakeMetadata struct {
	ProtocolID string `json:"protocol_id"`
	Action     string `json:"action"` // "deposit" or "withdraw"
}

// BridgeMetadata carries bridge details.
type BridgeMetadata struct {
	ProtocolID string `json:"protocol_id"`
	Direction  string `json:"direction"` // "in" or "out"
}

// NFTMintMetadata carries NFT mint details.
type NFTMintMetadata struct {
	Name string `json:"name,omitempty"`
	Mint string `json:"mint"`
}

// TransactionClassification is the engine's verdict for one transaction.
// It is produced once, never mutated, and is a pure function of the
// transaction body, so it is safe to cache indefinitely keyed by signature.
type TransactionClassification struct {
	PrimaryType     PrimaryType         `json:"primary_type"`
	PrimaryAmount   *ledger.MoneyAmount `json:"primary_amount,omitempty"`
	SecondaryAmount *ledger.MoneyAmount `json:"secondary_amount,omitempty"`
	Sender          *string             `json:"sender,omitempty"`
	Receiver        *string             `json:"receiver,omitempty"`
	Counterparty    *Counterparty       `json:"counterparty,omitempty"`
	Confidence      float64             `json:"confidence"`
	Metadata        Metadata            `json:"metadata,omitzero"`
}

// Classifier is one member of the fallback chain: a pure function from legs
// plus transaction context to at most one classification.
type Classifier interface {
	Name() string
	Classify(legs []ledger.TxLeg, tx *solana.RawTransaction) *TransactionClassification
}

// ClassifiedTransaction is the outbound unit produced by the pipeline:
// the raw transaction, its ledger, and the classification.
type ClassifiedTransaction struct {
	Tx             *solana.RawTransaction    `json:"tx"`
	Legs           []ledger.TxLeg            `json:"legs"`
	Classification TransactionClassification `json:"classification"`
}
