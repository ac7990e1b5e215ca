package registry

import "fmt"

// ResolutionSource indicates how a TokenInfo was resolved.
type ResolutionSource string

const (
	// SourceStatic means the token came from the built-in registry.
	SourceStatic ResolutionSource = "static"
	// SourceExternal means the token was resolved via an external lookup.
	SourceExternal ResolutionSource = "external"
	// SourceFallback means the token is a generated placeholder for an
	// unrecognized mint.
	SourceFallback ResolutionSource = "fallback"
)

// TokenInfo describes an SPL token mint.
type TokenInfo struct {
	Mint     string           `json:"mint"`
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name"`
	Decimals uint8            `json:"decimals"`
	LogoURI  string           `json:"logo_uri,omitempty"`
	Source   ResolutionSource `json:"source"`
	// LPToken marks pool share tokens minted by AMMs. The liquidity
	// classifier uses this to tell add/remove-liquidity apart from swaps.
	LPToken bool `json:"lp_token,omitempty"`
}

// WrappedSolMint is the mint address of wrapped SOL.
const WrappedSolMint = "So11111111111111111111111111111111111111112"

// SolDecimals is the number of decimal places in one SOL (1 SOL = 1e9 lamports).
const SolDecimals = 9

// TokenRegistry is an immutable mint -> TokenInfo map. It is built once at
// process start and passed by reference into the components that need it.
type TokenRegistry struct {
	byMint map[string]TokenInfo
}

// NewTokenRegistry builds a registry from the given tokens, indexed by mint.
func NewTokenRegistry(tokens []TokenInfo) *TokenRegistry {
	byMint := make(map[string]TokenInfo, len(tokens))
	for _, t := range tokens {
		if t.Source == "" {
			t.Source = SourceStatic
		}
		byMint[t.Mint] = t
	}
	return &TokenRegistry{byMint: byMint}
}

// DefaultTokenRegistry returns a registry seeded with well-known mainnet mints.
func DefaultTokenRegistry() *TokenRegistry {
	return NewTokenRegistry([]TokenInfo{
		{Mint: WrappedSolMint, Symbol: "SOL", Name: "Wrapped SOL", Decimals: 9},
		{Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Symbol: "USDT", Name: "USDT", Decimals: 6},
		{Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Symbol: "BONK", Name: "Bonk", Decimals: 5},
		{Mint: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", Symbol: "JUP", Name: "Jupiter", Decimals: 6},
		{Mint: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", Symbol: "RAY", Name: "Raydium", Decimals: 6},
		{Mint: "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So", Symbol: "mSOL", Name: "Marinade staked SOL", Decimals: 9},
		{Mint: "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj", Symbol: "stSOL", Name: "Lido Staked SOL", Decimals: 9},
		{Mint: "J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn", Symbol: "JitoSOL", Name: "Jito Staked SOL", Decimals: 9},
	})
}

// Lookup returns the TokenInfo for a mint if it is known.
func (r *TokenRegistry) Lookup(mint string) (TokenInfo, bool) {
	t, ok := r.byMint[mint]
	return t, ok
}

// Resolve returns the TokenInfo for a mint, falling back to a generated
// placeholder for unrecognized mints so that downstream ledger and
// classification logic always has a usable token descriptor.
func (r *TokenRegistry) Resolve(mint string, fallbackDecimals uint8) TokenInfo {
	if t, ok := r.byMint[mint]; ok {
		return t
	}
	return FallbackToken(mint, fallbackDecimals)
}

// FallbackToken generates a placeholder TokenInfo for an unrecognized mint.
func FallbackToken(mint string, decimals uint8) TokenInfo {
	prefix := mint
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return TokenInfo{
		Mint:     mint,
		Symbol:   prefix,
		Name:     fmt.Sprintf("Unknown Token (%s…)", prefix),
		Decimals: decimals,
		Source:   SourceFallback,
	}
}
