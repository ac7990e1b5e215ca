package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solledger/solledger/service/registry"
)

const (
	testPayer     = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	testRecipient = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// testSignature generates a deterministic valid base58 signature.
func testSignature(n byte) string {
	var raw [64]byte
	raw[0] = n + 1
	return solana.SignatureFromBytes(raw[:]).String()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRPCClient struct {
	mu sync.Mutex

	getSignatures    func(ctx context.Context, address solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	getTransaction   func(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	getBalance       func(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	getTokenAccounts func(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)

	txCalls     int
	inFlight    int
	maxInFlight int
}

func (m *mockRPCClient) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	return m.getSignatures(ctx, address, opts)
}

func (m *mockRPCClient) GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	m.mu.Lock()
	m.txCalls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()
	return m.getTransaction(ctx, sig, opts)
}

func (m *mockRPCClient) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	if m.getBalance == nil {
		return nil, errors.New("not implemented")
	}
	return m.getBalance(ctx, account, commitment)
}

func (m *mockRPCClient) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
	if m.getTokenAccounts == nil {
		return nil, errors.New("not implemented")
	}
	return m.getTokenAccounts(ctx, owner, conf, opts)
}

// makeEnvelopeJSON builds the JSON form of a getTransaction result for a
// minimal system transfer, the same shape a node returns under base64
// encoding.
func makeEnvelopeJSON(t *testing.T, slot uint64, fee uint64, pre, post []uint64) []byte {
	t.Helper()

	tx := solana.Transaction{
		Signatures: []solana.Signature{{}},
		Message: solana.Message{
			Header: solana.MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys: []solana.PublicKey{
				solana.MustPublicKeyFromBase58(testPayer),
				solana.MustPublicKeyFromBase58(testRecipient),
				solana.SystemProgramID,
			},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 2, Accounts: []uint16{0, 1}},
			},
		},
	}
	bin, err := tx.MarshalBinary()
	require.NoError(t, err)

	envelope := map[string]any{
		"slot":        slot,
		"blockTime":   1700000000,
		"transaction": []any{base64.StdEncoding.EncodeToString(bin), "base64"},
		"meta": map[string]any{
			"fee":          fee,
			"preBalances":  pre,
			"postBalances": post,
		},
	}
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	return data
}

func makeTransactionResult(t *testing.T, slot uint64, fee uint64, pre, post []uint64) *rpc.GetTransactionResult {
	t.Helper()
	var result rpc.GetTransactionResult
	require.NoError(t, json.Unmarshal(makeEnvelopeJSON(t, slot, fee, pre, post), &result))
	return &result
}

func TestFetchTransactionMapsResult(t *testing.T) {
	mock := &mockRPCClient{
		getTransaction: func(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
			return makeTransactionResult(t, 100, 5000,
				[]uint64{1_000_000_000, 0},
				[]uint64{998_995_000, 1_000_000},
			), nil
		},
	}
	client := NewClient(mock, registry.DefaultDetector(), testLogger())

	tx, err := client.FetchTransaction(context.Background(), testSignature(1))
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, testSignature(1), tx.Signature)
	assert.Equal(t, uint64(100), tx.Slot)
	assert.Equal(t, uint64(5000), tx.Fee)
	assert.Equal(t, []string{testPayer, testRecipient, registry.SystemProgramID}, tx.AccountKeys)
	assert.Equal(t, []string{registry.SystemProgramID}, tx.ProgramIDs)
	assert.Equal(t, []uint64{1_000_000_000, 0}, tx.PreBalances)
	assert.Equal(t, []uint64{998_995_000, 1_000_000}, tx.PostBalances)
	assert.Nil(t, tx.Protocol)
	assert.False(t, tx.Failed())
	assert.Equal(t, testPayer, tx.FeePayer())
}

func TestFetchTransactionNotFound(t *testing.T) {
	mock := &mockRPCClient{
		getTransaction: func(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
			return nil, rpc.ErrNotFound
		},
	}
	client := NewClient(mock, nil, testLogger())

	tx, err := client.FetchTransaction(context.Background(), testSignature(1))
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestFetchTransactionInvalidSignature(t *testing.T) {
	client := NewClient(&mockRPCClient{}, nil, testLogger())

	_, err := client.FetchTransaction(context.Background(), "not-a-signature!!")
	assert.Error(t, err)
}

func TestFetchTransactionRetriesTransientErrors(t *testing.T) {
	mock := &mockRPCClient{}
	mock.getTransaction = func(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
		mock.mu.Lock()
		calls := mock.txCalls
		mock.mu.Unlock()
		if calls < 2 {
			return nil, errors.New("rate limit exceeded")
		}
		return makeTransactionResult(t, 1, 5000, []uint64{10_000}, []uint64{5000}), nil
	}
	client := NewClient(mock, nil, testLogger(), WithRetryPolicy(fastPolicy(3)))

	tx, err := client.FetchTransaction(context.Background(), testSignature(1))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, 2, mock.txCalls)
}

func TestFetchWalletSignatures(t *testing.T) {
	blockTime := solana.UnixTimeSeconds(1700000000)
	memo := "hello"
	var capturedOpts *rpc.GetSignaturesForAddressOpts

	mock := &mockRPCClient{
		getSignatures: func(ctx context.Context, address solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			capturedOpts = opts
			return []*rpc.TransactionSignature{
				{
					Signature: solana.MustSignatureFromBase58(testSignature(2)),
					Slot:      200,
					BlockTime: &blockTime,
					Memo:      &memo,
				},
				{
					Signature: solana.MustSignatureFromBase58(testSignature(1)),
					Slot:      100,
				},
			}, nil
		},
	}
	client := NewClient(mock, nil, testLogger())

	sigs, err := client.FetchWalletSignatures(context.Background(), testPayer, SignatureOpts{
		Limit:  2,
		Before: testSignature(9),
	})
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, testSignature(2), sigs[0].Signature)
	assert.Equal(t, uint64(200), sigs[0].Slot)
	require.NotNil(t, sigs[0].BlockTime)
	assert.Equal(t, blockTime.Time().Unix(), sigs[0].BlockTime.Unix())
	require.NotNil(t, sigs[0].Memo)
	assert.Equal(t, "hello", *sigs[0].Memo)

	assert.Equal(t, testSignature(1), sigs[1].Signature)
	assert.Nil(t, sigs[1].BlockTime)

	require.NotNil(t, capturedOpts)
	require.NotNil(t, capturedOpts.Limit)
	assert.Equal(t, 2, *capturedOpts.Limit)
	assert.Equal(t, testSignature(9), capturedOpts.Before.String())
}

func TestFetchWalletSignaturesInvalidAddress(t *testing.T) {
	client := NewClient(&mockRPCClient{}, nil, testLogger())

	_, err := client.FetchWalletSignatures(context.Background(), "not base58", SignatureOpts{})
	assert.Error(t, err)
}

func TestFetchWalletSignaturesRPCError(t *testing.T) {
	mock := &mockRPCClient{
		getSignatures: func(ctx context.Context, address solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			return nil, errors.New("node unavailable")
		},
	}
	client := NewClient(mock, nil, testLogger())

	_, err := client.FetchWalletSignatures(context.Background(), testPayer, SignatureOpts{})
	assert.Error(t, err)
}
