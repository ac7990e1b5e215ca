package solana

import (
	"bytes"
	"context"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenAccountData encodes a minimal SPL token account in the binary layout
// the node returns under base64 encoding.
func tokenAccountData(t *testing.T, mint string, amount uint64) *rpc.DataBytesOrJSON {
	t.Helper()
	var buf bytes.Buffer
	err := bin.NewBinEncoder(&buf).Encode(token.Account{
		Mint:   solana.MustPublicKeyFromBase58(mint),
		Owner:  solana.MustPublicKeyFromBase58(testPayer),
		Amount: amount,
		State:  token.Initialized,
	})
	require.NoError(t, err)
	return rpc.DataBytesOrJSONFromBytes(buf.Bytes())
}

func TestFetchWalletBalance(t *testing.T) {
	usdcMint := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	tokenAccount := solana.MustPublicKeyFromBase58("7HZaCWazgTuuFuajxaaxGYbGnyVKwxvsJKue1W4Nvyro")

	var capturedConf *rpc.GetTokenAccountsConfig
	mock := &mockRPCClient{
		getBalance: func(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
			assert.Equal(t, testPayer, account.String())
			return &rpc.GetBalanceResult{Value: 2_500_000_000}, nil
		},
		getTokenAccounts: func(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
			capturedConf = conf
			return &rpc.GetTokenAccountsResult{
				Value: []*rpc.TokenAccount{
					{Pubkey: tokenAccount, Account: rpc.Account{Data: tokenAccountData(t, usdcMint, 12_000_000)}},
					// Emptied accounts and undecodable data are both skipped.
					{Pubkey: tokenAccount, Account: rpc.Account{Data: tokenAccountData(t, usdcMint, 0)}},
					{Pubkey: tokenAccount, Account: rpc.Account{Data: rpc.DataBytesOrJSONFromBytes([]byte{1, 2, 3})}},
				},
			}, nil
		},
	}
	client := NewClient(mock, nil, testLogger())

	balance, err := client.FetchWalletBalance(context.Background(), testPayer)
	require.NoError(t, err)

	assert.Equal(t, testPayer, balance.Address)
	assert.Equal(t, uint64(2_500_000_000), balance.Lamports)
	require.Len(t, balance.Tokens, 1)
	assert.Equal(t, usdcMint, balance.Tokens[0].Mint)
	assert.Equal(t, uint64(12_000_000), balance.Tokens[0].Amount)
	assert.Equal(t, tokenAccount.String(), balance.Tokens[0].Account)

	require.NotNil(t, capturedConf)
	require.NotNil(t, capturedConf.ProgramId)
	assert.Equal(t, solana.TokenProgramID, *capturedConf.ProgramId)
}

func TestFetchWalletBalanceInvalidAddress(t *testing.T) {
	client := NewClient(&mockRPCClient{}, nil, testLogger())

	balance, err := client.FetchWalletBalance(context.Background(), "not-base58!")
	require.Error(t, err)
	assert.Nil(t, balance)
}

func TestFetchWalletBalanceRetriesTransientErrors(t *testing.T) {
	calls := 0
	mock := &mockRPCClient{
		getBalance: func(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("request timed out")
			}
			return &rpc.GetBalanceResult{Value: 100}, nil
		},
		getTokenAccounts: func(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
			return &rpc.GetTokenAccountsResult{}, nil
		},
	}
	client := NewClient(mock, nil, testLogger(), WithRetryPolicy(fastPolicy(3)))

	balance, err := client.FetchWalletBalance(context.Background(), testPayer)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, uint64(100), balance.Lamports)
	assert.Empty(t, balance.Tokens)
}

func TestFetchWalletBalanceTokenAccountsError(t *testing.T) {
	mock := &mockRPCClient{
		getBalance: func(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
			return &rpc.GetBalanceResult{Value: 100}, nil
		},
		getTokenAccounts: func(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
			return nil, errors.New("invalid param")
		},
	}
	client := NewClient(mock, nil, testLogger(), WithRetryPolicy(fastPolicy(2)))

	balance, err := client.FetchWalletBalance(context.Background(), testPayer)
	require.Error(t, err)
	assert.Nil(t, balance)
	assert.Contains(t, err.Error(), "token accounts")
}
