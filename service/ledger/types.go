package ledger

import (
	"fmt"
	"math"

	"github.com/solledger/solledger/service/registry"
)

// NativeSOL is the token descriptor used for native lamport movements.
var NativeSOL = registry.TokenInfo{
	Mint:     registry.WrappedSolMint,
	Symbol:   "SOL",
	Name:     "Solana",
	Decimals: registry.SolDecimals,
	Source:   registry.SourceStatic,
}

// MoneyAmount pairs a token descriptor with an exact raw integer amount.
// Raw is the single source of truth; UI is a derived, lossy display value
// and is never used for arithmetic.
type MoneyAmount struct {
	Token registry.TokenInfo `json:"token"`
	Raw   int64              `json:"amount_raw,string"`
	UI    float64            `json:"amount_ui"`
}

// NewMoneyAmount builds a MoneyAmount, deriving the UI value from the raw
// amount and the token's decimals.
func NewMoneyAmount(token registry.TokenInfo, raw int64) MoneyAmount {
	return MoneyAmount{
		Token: token,
		Raw:   raw,
		UI:    float64(raw) / math.Pow10(int(token.Decimals)),
	}
}

// AccountKind tags the participant type a leg belongs to.
type AccountKind string

const (
	AccountWallet   AccountKind = "wallet"
	AccountExternal AccountKind = "external"
	AccountProtocol AccountKind = "protocol"
	AccountFee      AccountKind = "fee"
)

// AccountID is a tagged identifier distinguishing wallet / external /
// protocol / fee participants, used to group legs by counterparty type.
type AccountID struct {
	Kind    AccountKind `json:"kind"`
	Address string      `json:"address"`
	// Protocol and Token discriminate protocol pseudo-accounts, e.g. the
	// raydium pool account holding USDC.
	Protocol string `json:"protocol,omitempty"`
	Token    string `json:"token,omitempty"`
}

// FeeAccount is the reserved pseudo-account the synthesized network-fee leg
// is credited to.
var FeeAccount = AccountID{Kind: AccountFee, Address: "network"}

// String renders the tagged form, e.g. "wallet:ADDR", "protocol:raydium:USDC",
// "fee:network".
func (a AccountID) String() string {
	switch a.Kind {
	case AccountProtocol:
		return fmt.Sprintf("%s:%s:%s", a.Kind, a.Protocol, a.Token)
	default:
		return fmt.Sprintf("%s:%s", a.Kind, a.Address)
	}
}

// LegSide is the double-entry side of a leg.
type LegSide string

const (
	SideDebit  LegSide = "debit"
	SideCredit LegSide = "credit"
)

// LegRole describes what the movement means for its participant.
type LegRole string

const (
	RoleSent             LegRole = "sent"
	RoleReceived         LegRole = "received"
	RoleFee              LegRole = "fee"
	RoleReward           LegRole = "reward"
	RoleProtocolDeposit  LegRole = "protocol_deposit"
	RoleProtocolWithdraw LegRole = "protocol_withdraw"
)

// TxLeg is one signed balance movement of one currency for one participant
// within a single transaction. Legs are immutable: built fresh per
// transaction and never mutated.
type TxLeg struct {
	Account AccountID   `json:"account"`
	Side    LegSide     `json:"side"`
	Amount  MoneyAmount `json:"amount"`
	Role    LegRole     `json:"role"`
}

// SolBalanceChange is one account's native balance delta in lamports.
type SolBalanceChange struct {
	AccountIndex int    `json:"account_index"`
	Address      string `json:"address"`
	Lamports     int64  `json:"lamports"`
}

// TokenBalanceChange is one token account's balance delta. RawDelta is exact;
// UIDelta is computed from the RPC display strings independently of RawDelta
// to avoid double rounding.
type TokenBalanceChange struct {
	AccountIndex int                `json:"account_index"`
	Address      string             `json:"address"` // token account address
	Owner        string             `json:"owner,omitempty"`
	Token        registry.TokenInfo `json:"token"`
	RawDelta     int64              `json:"raw_delta,string"`
	UIDelta      float64            `json:"ui_delta"`
}
