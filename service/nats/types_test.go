package nats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/ledger"
	"github.com/solledger/solledger/service/solana"
)

func TestFromClassified(t *testing.T) {
	wallet := "WalletA"
	sender := wallet
	receiver := "WalletB"
	blockTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	amount := ledger.NewMoneyAmount(ledger.NativeSOL, 1_000_000_000)

	ct := &classify.ClassifiedTransaction{
		Tx: &solana.RawTransaction{
			Signature: "sig1",
			Slot:      42,
			BlockTime: blockTime,
		},
		Classification: classify.TransactionClassification{
			PrimaryType:   classify.TypeTransfer,
			PrimaryAmount: &amount,
			Sender:        &sender,
			Receiver:      &receiver,
			Confidence:    0.95,
		},
	}

	event := FromClassified(wallet, ct)
	require.NotNil(t, event)

	assert.Equal(t, "sig1", event.Signature)
	assert.Equal(t, uint64(42), event.Slot)
	assert.Equal(t, wallet, event.WalletAddress)
	assert.Equal(t, "transfer", event.PrimaryType)
	assert.Equal(t, classify.DirectionOut, event.Direction)
	assert.Equal(t, 0.95, event.Confidence)
	assert.False(t, event.Failed)
	require.NotNil(t, event.PrimaryAmount)
	assert.Equal(t, int64(1_000_000_000), event.PrimaryAmount.Raw)
	assert.Equal(t, blockTime, event.BlockTime)
	assert.False(t, event.PublishedAt.IsZero())
}

func TestFromClassifiedFailedTransaction(t *testing.T) {
	errMsg := `{"InstructionError":[0,"Custom"]}`
	ct := &classify.ClassifiedTransaction{
		Tx: &solana.RawTransaction{Signature: "sig2", Err: &errMsg},
		Classification: classify.TransactionClassification{
			PrimaryType: classify.TypeUnknown,
			Confidence:  0.25,
		},
	}

	event := FromClassified("WalletA", ct)
	assert.True(t, event.Failed)
	assert.Equal(t, "unknown", event.PrimaryType)
}
