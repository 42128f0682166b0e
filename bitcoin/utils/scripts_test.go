// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils_test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"ordsnipe/bitcoin/utils"
)

func TestScripts(t *testing.T) {
	const taprootAddress = "tb1peymd09grxec8qg7tn5vqsmf7j7fhuvw9w8lua3msmzzqhr3qtfjqlj50zg"

	t.Run("PayToAddrScript&AddressFromScript", func(t *testing.T) {
		script, err := utils.PayToAddrScript(taprootAddress, &chaincfg.TestNet3Params)
		require.NoError(t, err)
		require.NotEmpty(t, script)

		address, err := utils.AddressFromScript(script, &chaincfg.TestNet3Params)
		require.NoError(t, err)
		require.Equal(t, taprootAddress, address)
	})

	t.Run("PayToAddrScript wrong network", func(t *testing.T) {
		_, err := utils.PayToAddrScript(taprootAddress, &chaincfg.MainNetParams)
		require.Error(t, err)
	})

	t.Run("AddressFromScript without address", func(t *testing.T) {
		nullData, err := txscript.NewScriptBuilder().AddOp(txscript.OP_RETURN).Script()
		require.NoError(t, err)

		_, err = utils.AddressFromScript(nullData, &chaincfg.TestNet3Params)
		require.ErrorIs(t, err, utils.ErrNoAddressInScript)
	})
}
