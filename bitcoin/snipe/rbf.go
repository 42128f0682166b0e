// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package snipe

import (
	"github.com/btcsuite/btcd/wire"
)

// rbfSequenceThreshold defines the BIP-125 boundary: an input with a sequence
// below this value opts the transaction into replace-by-fee.
const rbfSequenceThreshold uint32 = wire.MaxTxInSequenceNum - 1

// IsReplaceable reports whether at least one input of the transaction signals
// BIP-125 replaceability. A snipe races the original transaction for its
// inputs, a non-replaceable reference may already be irrevocably final.
func IsReplaceable(tx *wire.MsgTx) bool {
	for _, txIn := range tx.TxIn {
		if txIn.Sequence < rbfSequenceThreshold {
			return true
		}
	}

	return false
}
