package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

func testClassified(signature, wallet string, slot uint64, primaryType classify.PrimaryType) *classify.ClassifiedTransaction {
	tx := &solana.RawTransaction{
		Signature:    signature,
		Slot:         slot,
		BlockTime:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Fee:          5000,
		AccountKeys:  []string{wallet, "recipient111111111111111111111111111111111"},
		PreBalances:  []uint64{1_000_000_000, 0},
		PostBalances: []uint64{899_995_000, 100_000_000},
	}
	amount := ledger.NewMoneyAmount(ledger.NativeSOL, 100_000_000)
	return &classify.ClassifiedTransaction{
		Tx: tx,
		Legs: []ledger.TxLeg{
			{
				Account: ledger.AccountID{Kind: ledger.AccountWallet, Address: wallet},
				Side:    ledger.SideDebit,
				Role:    ledger.RoleSent,
				Amount:  amount,
			},
		},
		Classification: classify.TransactionClassification{
			PrimaryType:   primaryType,
			PrimaryAmount: &amount,
			Confidence:    0.95,
		},
	}
}

func TestStoreUpsertAndGet(t *testing.T) {
	SkipIfNoTestDB(t)
	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	ctx := context.Background()
	wallet := "testWallet1111111111111111111111111111111111"
	ct := testClassified("sig1", wallet, 100, classify.TypeTransfer)

	err := ts.UpsertClassified(ctx, wallet, ct)
	require.NoError(t, err)

	got, err := ts.GetClassified(ctx, "sig1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sig1", got.Signature)
	assert.Equal(t, wallet, got.WalletAddress)
	assert.Equal(t, int64(100), got.Slot)
	assert.Equal(t, string(classify.TypeTransfer), got.PrimaryType)
	assert.False(t, got.Failed)

	// Full pipeline output survives the round trip.
	require.NotNil(t, got.Classified)
	assert.Equal(t, "sig1", got.Classified.Tx.Signature)
	require.Len(t, got.Classified.Legs, 1)
	assert.Equal(t, ledger.RoleSent, got.Classified.Legs[0].Role)
	assert.Equal(t, int64(100_000_000), got.Classified.Classification.PrimaryAmount.Raw)
}

func TestStoreUpsertIsIdempotent(t *testing.T) {
	SkipIfNoTestDB(t)
	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	ctx := context.Background()
	wallet := "testWallet1111111111111111111111111111111111"
	ct := testClassified("sig1", wallet, 100, classify.TypeTransfer)

	require.NoError(t, ts.UpsertClassified(ctx, wallet, ct))

	// Reclassify as a swap and upsert again.
	ct.Classification.PrimaryType = classify.TypeSwap
	require.NoError(t, ts.UpsertClassified(ctx, wallet, ct))

	count, err := ts.CountByWallet(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := ts.GetClassified(ctx, "sig1")
	require.NoError(t, err)
	assert.Equal(t, string(classify.TypeSwap), got.PrimaryType)
}

func TestStoreGetMissing(t *testing.T) {
	SkipIfNoTestDB(t)
	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	got, err := ts.GetClassified(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreListByWalletPagination(t *testing.T) {
	SkipIfNoTestDB(t)
	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	ctx := context.Background()
	wallet := "testWallet1111111111111111111111111111111111"
	for i, slot := range []uint64{100, 200, 300, 400, 500} {
		sig := string(rune('a'+i)) + "sig"
		ct := testClassified(sig, wallet, slot, classify.TypeTransfer)
		require.NoError(t, ts.UpsertClassified(ctx, wallet, ct))
	}

	// First page, newest first.
	page, err := ts.ListByWallet(ctx, ListParams{WalletAddress: wallet, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(500), page[0].Slot)
	assert.Equal(t, int64(400), page[1].Slot)

	// Next page via the slot cursor.
	page, err = ts.ListByWallet(ctx, ListParams{WalletAddress: wallet, Limit: 2, BeforeSlot: page[1].Slot})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(300), page[0].Slot)
	assert.Equal(t, int64(200), page[1].Slot)
}

func TestStoreCountByType(t *testing.T) {
	SkipIfNoTestDB(t)
	ts := NewTestStore(t)
	defer ts.Close()
	ts.Cleanup(t)

	ctx := context.Background()
	wallet := "testWallet1111111111111111111111111111111111"
	require.NoError(t, ts.UpsertClassified(ctx, wallet, testClassified("s1", wallet, 1, classify.TypeTransfer)))
	require.NoError(t, ts.UpsertClassified(ctx, wallet, testClassified("s2", wallet, 2, classify.TypeTransfer)))
	require.NoError(t, ts.UpsertClassified(ctx, wallet, testClassified("s3", wallet, 3, classify.TypeSwap)))

	counts, err := ts.CountByType(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[string(classify.TypeTransfer)])
	assert.Equal(t, int64(1), counts[string(classify.TypeSwap)])
}
