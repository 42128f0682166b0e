// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package snipe_test

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"ordsnipe/bitcoin/snipe"
)

func TestIsReplaceable(t *testing.T) {
	txWithSequences := func(sequences ...uint32) *wire.MsgTx {
		tx := wire.NewMsgTx(2)
		for _, sequence := range sequences {
			txIn := wire.NewTxIn(&wire.OutPoint{}, nil, nil)
			txIn.Sequence = sequence
			tx.AddTxIn(txIn)
		}

		return tx
	}

	tests := []struct {
		sequences   []uint32
		replaceable bool
	}{
		{[]uint32{wire.MaxTxInSequenceNum}, false},
		{[]uint32{wire.MaxTxInSequenceNum - 1}, false},
		{[]uint32{wire.MaxTxInSequenceNum - 2}, true},
		{[]uint32{0}, true},
		{[]uint32{wire.MaxTxInSequenceNum, wire.MaxTxInSequenceNum - 2}, true},
		{[]uint32{wire.MaxTxInSequenceNum, wire.MaxTxInSequenceNum - 1}, false},
		{nil, false},
	}
	for _, test := range tests {
		require.Equal(t, test.replaceable, snipe.IsReplaceable(txWithSequences(test.sequences...)), test.sequences)
	}
}
