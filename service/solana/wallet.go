package solana

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// WalletBalance is a point-in-time snapshot of a wallet's holdings: the
// native lamport balance plus every non-empty SPL token account it owns.
type WalletBalance struct {
	Address  string         `json:"address"`
	Lamports uint64         `json:"lamports"`
	Tokens   []TokenHolding `json:"tokens"`
}

// TokenHolding is one SPL token holding, in raw base units.
type TokenHolding struct {
	Mint    string `json:"mint"`
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// FetchWalletBalance reads the wallet's lamport balance and its SPL token
// accounts in two RPC calls, both retried under the client's retry policy.
// Token accounts holding a zero amount are dropped; an account whose data
// fails to decode is skipped with a warning rather than failing the whole
// snapshot.
func (c *Client) FetchWalletBalance(ctx context.Context, wallet string) (*WalletBalance, error) {
	address, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address %q: %w", wallet, err)
	}

	balance, err := Retry(ctx, c.retry, func(ctx context.Context) (*rpc.GetBalanceResult, error) {
		start := time.Now()
		result, err := c.rpc.GetBalance(ctx, address, c.commitment)
		c.recordRPCCall("GetBalance", err, time.Since(start).Seconds())
		return result, err
	})
	if err != nil {
		return nil, fmt.Errorf("get balance for %s: %w", wallet, err)
	}

	accounts, err := Retry(ctx, c.retry, func(ctx context.Context) (*rpc.GetTokenAccountsResult, error) {
		start := time.Now()
		result, err := c.rpc.GetTokenAccountsByOwner(ctx, address,
			&rpc.GetTokenAccountsConfig{
				ProgramId: solana.TokenProgramID.ToPointer(),
			},
			&rpc.GetTokenAccountsOpts{
				Commitment: c.commitment,
				Encoding:   solana.EncodingBase64,
			},
		)
		c.recordRPCCall("GetTokenAccountsByOwner", err, time.Since(start).Seconds())
		return result, err
	})
	if err != nil {
		return nil, fmt.Errorf("get token accounts for %s: %w", wallet, err)
	}

	out := &WalletBalance{
		Address:  wallet,
		Lamports: balance.Value,
	}
	for _, raw := range accounts.Value {
		var acc token.Account
		if err := bin.NewBinDecoder(raw.Account.Data.GetBinary()).Decode(&acc); err != nil {
			c.logger.WarnContext(ctx, "skipping undecodable token account",
				"wallet", wallet,
				"account", raw.Pubkey.String(),
				"error", err,
			)
			continue
		}
		if acc.Amount == 0 {
			continue
		}
		out.Tokens = append(out.Tokens, TokenHolding{
			Mint:    acc.Mint.String(),
			Account: raw.Pubkey.String(),
			Amount:  acc.Amount,
		})
	}

	c.logger.DebugContext(ctx, "fetched wallet balance",
		"wallet", wallet,
		"lamports", out.Lamports,
		"token_accounts", len(out.Tokens),
	)
	return out, nil
}

// recordRPCCall records one RPC call outcome when metrics are attached.
func (c *Client) recordRPCCall(method string, err error, duration float64) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, duration)
	if err != nil && IsRetryable(err) {
		c.metrics.RecordRPCRetry(method, "transient")
		if isRateLimited(err) {
			c.metrics.RecordRateLimitHit(c.endpoint)
		}
	}
}
