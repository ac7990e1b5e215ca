package solana

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solledger/solledger/service/registry"
)

// Memo program IDs. Memos are extracted during mapping so downstream
// consumers never have to re-decode instructions.
var (
	// MemoProgramIDSPL is the SPL Memo program (most common)
	MemoProgramIDSPL = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	// MemoProgramIDLegacy is the legacy memo program (v1)
	MemoProgramIDLegacy = solana.MustPublicKeyFromBase58("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")
)

// signatureToInfo converts an RPC TransactionSignature to a SignatureInfo stub.
func signatureToInfo(sig *rpc.TransactionSignature) SignatureInfo {
	info := SignatureInfo{
		Signature: sig.Signature.String(),
		Slot:      sig.Slot,
	}
	if sig.BlockTime != nil {
		t := sig.BlockTime.Time()
		info.BlockTime = &t
	}
	if sig.Err != nil {
		errMsg := fmt.Sprintf("%v", sig.Err)
		info.Err = &errMsg
	}
	if sig.Memo != nil && *sig.Memo != "" {
		info.Memo = sig.Memo
	}
	return info
}

// rawTransactionFromResult maps a full GetTransactionResult into our
// immutable RawTransaction. The detector resolves the protocol once from the
// program IDs present; it may be nil, in which case Protocol stays unset.
func rawTransactionFromResult(signature string, result *rpc.GetTransactionResult, detector *registry.Detector) (*RawTransaction, error) {
	if result == nil {
		return nil, fmt.Errorf("nil transaction result for %s", signature)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", signature, err)
	}

	raw := &RawTransaction{
		Signature: signature,
		Slot:      result.Slot,
	}
	if result.BlockTime != nil {
		raw.BlockTime = result.BlockTime.Time()
	} else {
		raw.BlockTime = time.Time{}
	}

	// Static account keys first, then lookup-table loaded addresses, in the
	// writable-then-readonly order the balance arrays are indexed by.
	keys := make([]string, 0, len(tx.Message.AccountKeys))
	for _, key := range tx.Message.AccountKeys {
		keys = append(keys, key.String())
	}
	if result.Meta != nil {
		for _, key := range result.Meta.LoadedAddresses.Writable {
			keys = append(keys, key.String())
		}
		for _, key := range result.Meta.LoadedAddresses.ReadOnly {
			keys = append(keys, key.String())
		}
	}
	raw.AccountKeys = keys

	// Program IDs involved, deduplicated but order-preserving so protocol
	// detection stays deterministic.
	seen := make(map[string]struct{})
	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(keys) {
			continue
		}
		programID := keys[ix.ProgramIDIndex]
		if _, ok := seen[programID]; ok {
			continue
		}
		seen[programID] = struct{}{}
		raw.ProgramIDs = append(raw.ProgramIDs, programID)

		// Extract memo while we're walking instructions.
		if programID == MemoProgramIDSPL.String() || programID == MemoProgramIDLegacy.String() {
			if memo := parseMemo(ix.Data); memo != "" {
				raw.Memo = &memo
			}
		}
	}

	if result.Meta != nil {
		raw.Fee = result.Meta.Fee
		raw.PreBalances = result.Meta.PreBalances
		raw.PostBalances = result.Meta.PostBalances
		raw.PreTokenBalances = mapTokenBalances(result.Meta.PreTokenBalances)
		raw.PostTokenBalances = mapTokenBalances(result.Meta.PostTokenBalances)
		if result.Meta.Err != nil {
			errMsg := stringifyTxErr(result.Meta.Err)
			raw.Err = &errMsg
		}
	}

	if detector != nil {
		raw.Protocol = detector.Detect(raw.ProgramIDs)
	}

	return raw, nil
}

// mapTokenBalances converts RPC token balance entries to our domain form.
func mapTokenBalances(balances []rpc.TokenBalance) []TokenBalance {
	if len(balances) == 0 {
		return nil
	}
	out := make([]TokenBalance, 0, len(balances))
	for _, b := range balances {
		tb := TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint.String(),
		}
		if b.Owner != nil {
			tb.Owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			tb.Amount = b.UiTokenAmount.Amount
			tb.Decimals = b.UiTokenAmount.Decimals
			tb.UIAmountString = b.UiTokenAmount.UiAmountString
		}
		out = append(out, tb)
	}
	return out
}

// stringifyTxErr renders the RPC's structured transaction error as a stable
// string. JSON keeps map renderings deterministic across runs.
func stringifyTxErr(txErr interface{}) string {
	if data, err := json.Marshal(txErr); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", txErr)
}

// parseMemo extracts the memo text from a Memo Program instruction.
// Some memos are base64 encoded, others are plain UTF-8.
func parseMemo(data []byte) string {
	memo := string(data)

	if decoded, err := base64.StdEncoding.DecodeString(memo); err == nil {
		if isValidUTF8(decoded) {
			return string(decoded)
		}
	}

	return memo
}

// isValidUTF8 checks if bytes look like printable text.
func isValidUTF8(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return false
		}
	}
	return true
}
