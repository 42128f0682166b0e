// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder_test

import (
	"bytes"
	"encoding/base64"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"ordsnipe/bitcoin/txbuilder"
	"ordsnipe/bitcoin/utils"
)

func TestBuildingTx(t *testing.T) {
	const (
		prevTxHash     = "d78a52d61c43ec43d56e270e8f87ebe952f3bb5fe0a042494ed6ebf753285746"
		taprootAddress = "tb1peymd09grxec8qg7tn5vqsmf7j7fhuvw9w8lua3msmzzqhr3qtfjqlj50zg"
	)

	witnessScript, err := utils.PayToAddrScript(taprootAddress, &chaincfg.TestNet3Params)
	require.NoError(t, err)

	t.Run("sums and balance", func(t *testing.T) {
		b := txbuilder.NewBuildingTx(&chaincfg.TestNet3Params)

		err := b.AddInput(prevTxHash, 2, wire.MaxTxInSequenceNum, big.NewInt(10000), witnessScript)
		require.NoError(t, err)
		err = b.AddInput(prevTxHash, 4, wire.MaxTxInSequenceNum, big.NewInt(5000), witnessScript)
		require.NoError(t, err)

		err = b.AddOutput(taprootAddress, big.NewInt(14000))
		require.NoError(t, err)

		require.EqualValues(t, big.NewInt(15000), b.InputSum())
		require.EqualValues(t, big.NewInt(14000), b.OutputSum())

		require.NoError(t, b.CheckBalance(big.NewInt(1000)))
		require.ErrorIs(t, b.CheckBalance(big.NewInt(999)), txbuilder.ErrUnbalancedTransaction)
		require.ErrorIs(t, b.CheckBalance(big.NewInt(0)), txbuilder.ErrUnbalancedTransaction)
	})

	t.Run("psbt carries witness data", func(t *testing.T) {
		b := txbuilder.NewBuildingTx(&chaincfg.TestNet3Params)

		require.NoError(t, b.AddInput(prevTxHash, 0, wire.MaxTxInSequenceNum-2, big.NewInt(7726), witnessScript))
		require.NoError(t, b.AddOutput(taprootAddress, big.NewInt(7000)))

		raw, err := b.PSBT()
		require.NoError(t, err)

		packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
		require.NoError(t, err)
		require.Len(t, packet.Inputs, 1)
		require.NotNil(t, packet.Inputs[0].WitnessUtxo)
		require.EqualValues(t, 7726, packet.Inputs[0].WitnessUtxo.Value)
		require.Equal(t, witnessScript, packet.Inputs[0].WitnessUtxo.PkScript)
		require.Equal(t, txscript.SigHashAll, packet.Inputs[0].SighashType)
		require.EqualValues(t, wire.MaxTxInSequenceNum-2, packet.UnsignedTx.TxIn[0].Sequence)

		encoded, err := b.PSBTBase64()
		require.NoError(t, err)
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		require.Equal(t, raw, decoded)
	})

	t.Run("invalid previous tx hash", func(t *testing.T) {
		b := txbuilder.NewBuildingTx(&chaincfg.TestNet3Params)
		err := b.AddInput("not-a-hash", 0, wire.MaxTxInSequenceNum, big.NewInt(1), witnessScript)
		require.Error(t, err)
	})

	t.Run("invalid output address", func(t *testing.T) {
		b := txbuilder.NewBuildingTx(&chaincfg.TestNet3Params)
		err := b.AddOutput("bc1qinvalid", big.NewInt(1))
		require.Error(t, err)
	})
}
